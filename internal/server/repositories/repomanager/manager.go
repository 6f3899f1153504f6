package repomanager

import (
	"context"
	"database/sql"

	"github.com/devtv/devtv/internal/dbx"
	"github.com/devtv/devtv/internal/server/repositories/accounts"
	"github.com/devtv/devtv/internal/server/repositories/sessions"
	"github.com/devtv/devtv/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX and owns schema
// setup and transactions for one storage backend.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	WithTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error
	Users(db dbx.DBTX) users.Repository
	Accounts(db dbx.DBTX) accounts.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
