// Package sessions declares the repository contract for database sessions
// and its PostgreSQL implementation.
package sessions

import (
	"context"
	"time"

	"github.com/devtv/devtv/internal/server/models"
)

// Repository defines operations on the sessions table. Every lookup goes
// through the unique session_token column.
type Repository interface {
	// Create stores a new session. A reused token wraps common.ErrorAlreadyExists.
	Create(ctx context.Context, s *models.Session) (*models.Session, error)

	// FindWithUser returns the session and its owner, or common.ErrorNotFound.
	FindWithUser(ctx context.Context, token string) (*models.Session, *models.User, error)

	// Update applies upd to the session with the given token, or returns
	// common.ErrorNotFound.
	Update(ctx context.Context, token string, upd models.SessionUpdate) (*models.Session, error)

	// Delete removes the session. Deleting a missing token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes all sessions that expired before the given instant
	// and reports how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
