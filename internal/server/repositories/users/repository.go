// Package users declares the repository contract for the users table and
// its PostgreSQL implementation.
package users

import (
	"context"

	"github.com/devtv/devtv/internal/server/models"
)

// Repository defines persistence operations on users. Lookups are by unique
// key only; implementations return common.ErrorNotFound when nothing matches
// and wrap common.ErrorAlreadyExists when the email is taken.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	// Delete removes the user together with its accounts and sessions.
	// A missing user is not an error.
	Delete(ctx context.Context, id string) error
}
