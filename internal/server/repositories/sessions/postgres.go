package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/devtv/devtv/internal/common"
	"github.com/devtv/devtv/internal/dbx"
	"github.com/devtv/devtv/internal/server/models"
	"github.com/devtv/devtv/internal/server/repositories/users"
	"github.com/google/uuid"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts s, assigning a row ID when it has none.
func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) (*models.Session, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	query := `
		INSERT INTO sessions (id, session_token, user_id, expires)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, s.ID, s.SessionToken, s.UserID, s.Expires); err != nil {
		if dbx.IsUniqueViolation(err, "sessions_session_token_key") {
			return nil, fmt.Errorf("%w: session token", common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// FindWithUser returns the session row for token joined with its user.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) FindWithUser(ctx context.Context, token string) (*models.Session, *models.User, error) {
	query := `
		SELECT s.id, s.session_token, s.user_id, s.expires, ` + users.Columns("u") + `
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.session_token = $1
	`
	s := &models.Session{}
	ur := &users.Row{}
	dest := append([]any{&s.ID, &s.SessionToken, &s.UserID, &s.Expires}, ur.Dest()...)

	if err := r.db.QueryRowContext(ctx, query, token).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, common.ErrorNotFound
		}
		return nil, nil, fmt.Errorf("db error: %w", err)
	}
	return s, ur.User(), nil
}

// Update changes expires and/or user_id of the session with the given token.
func (r *PostgresRepository) Update(ctx context.Context, token string, upd models.SessionUpdate) (*models.Session, error) {
	query := `
		UPDATE sessions SET
			expires = COALESCE($2, expires),
			user_id = COALESCE($3, user_id)
		WHERE session_token = $1
		RETURNING id, session_token, user_id, expires
	`
	s := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, token, upd.Expires, upd.UserID).
		Scan(&s.ID, &s.SessionToken, &s.UserID, &s.Expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// Delete removes a session by its token string.
func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	query := `
		DELETE FROM sessions
		WHERE session_token = $1
	`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM sessions
		WHERE expires < $1
	`
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
