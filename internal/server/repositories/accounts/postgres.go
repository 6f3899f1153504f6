package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/devtv/devtv/internal/common"
	"github.com/devtv/devtv/internal/dbx"
	"github.com/devtv/devtv/internal/server/models"
	"github.com/devtv/devtv/internal/server/repositories/users"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	query := `
		INSERT INTO accounts (id, user_id, type, provider, provider_account_id,
			refresh_token, access_token, expires_at, token_type, scope, id_token, session_state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.Type, a.Provider, a.ProviderAccountID,
		a.RefreshToken, a.AccessToken, a.ExpiresAt, a.TokenType, a.Scope, a.IDToken, a.SessionState,
	)
	if err != nil {
		if dbx.IsUniqueViolation(err, "accounts_provider_provider_account_id_key") {
			return fmt.Errorf("%w: account %s/%s", common.ErrorAlreadyExists, a.Provider, a.ProviderAccountID)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetUser(ctx context.Context, provider, providerAccountID string) (*models.User, error) {
	query := `
		SELECT ` + users.Columns("u") + `
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE a.provider = $1 AND a.provider_account_id = $2
	`
	row := &users.Row{}
	err := r.db.QueryRowContext(ctx, query, provider, providerAccountID).Scan(row.Dest()...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return row.User(), nil
}
