// Package accounts declares the repository contract for provider accounts
// linked to users and its PostgreSQL implementation.
package accounts

import (
	"context"

	"github.com/devtv/devtv/internal/server/models"
)

// Repository defines operations on the accounts table.
type Repository interface {
	// Create inserts a new account link. A second link for the same
	// (provider, providerAccountID) wraps common.ErrorAlreadyExists.
	Create(ctx context.Context, account *models.Account) error

	// GetUser resolves the user owning the given provider account, or
	// returns common.ErrorNotFound.
	GetUser(ctx context.Context, provider, providerAccountID string) (*models.User, error)
}
