package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/devtv/devtv/internal/common"
	"github.com/devtv/devtv/internal/dbx"
	"github.com/devtv/devtv/internal/server/models"
	"github.com/google/uuid"
)

const emailConstraint = "users_email_key"

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user, assigning a fresh ID when it has none. An empty email
// is stored as NULL.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query := `
		INSERT INTO users (id, name, email, hashed_password, email_verified, image)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, dbx.NullString(user.Email), user.HashedPassword, user.EmailVerified, user.Image,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err, emailConstraint) {
			return nil, fmt.Errorf("%w: email %q", common.ErrorAlreadyExists, user.Email)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + Columns("") + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByEmail matches the stored address exactly. An empty email never
// matches since it is stored as NULL.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + Columns("") + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

// Update applies the non-nil fields of upd and bumps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	query := `
		UPDATE users SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			email_verified = COALESCE($4, email_verified),
			image = COALESCE($5, image),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + Columns("")

	var email *string
	if upd.Email != nil && *upd.Email != "" {
		email = upd.Email
	}

	u, err := r.getOne(ctx, query, id, upd.Name, email, upd.EmailVerified, upd.Image)
	if err != nil && dbx.IsUniqueViolation(err, emailConstraint) {
		return nil, fmt.Errorf("%w: email %q", common.ErrorAlreadyExists, *email)
	}
	return u, err
}

// Delete relies on ON DELETE CASCADE for accounts and sessions.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}
