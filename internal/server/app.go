// Package server initializes and runs the devtv auth server.
// It opens the storage backend, runs migrations, wires the services,
// starts the HTTP server and the expired-session sweeper, and handles
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/devtv/devtv/internal/logging"
	"github.com/devtv/devtv/internal/server/adapter"
	"github.com/devtv/devtv/internal/server/auth"
	"github.com/devtv/devtv/internal/server/config"
	"github.com/devtv/devtv/internal/server/repositories/repomanager"
	"github.com/devtv/devtv/internal/server/services"
	"github.com/devtv/devtv/internal/server/web"
)

// openPostgres is a seam for tests.
var openPostgres = repomanager.OpenPostgres

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	http    *web.HTTPServer
	sweeper *services.SessionSweeper
}

// NewApp opens storage and wires all components. The returned App owns the
// database pool and closes it when Run returns.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, rm, err := openStorage(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	store := adapter.NewStore(db, rm)
	credentials := services.NewCredentialService(db, rm, c)
	manager := auth.NewManager(store, credentials, c, logger)

	var healthCheck func(context.Context) error
	if db != nil {
		healthCheck = db.PingContext
	}

	httpServer, err := web.NewHTTPServer(c, web.Deps{
		Registrar:   credentials,
		Sessions:    manager,
		Avatars:     services.NewAvatarService(store, c),
		Logger:      logger,
		HealthCheck: healthCheck,
	})
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("http server init error: %w", err)
	}

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		http:    httpServer,
		sweeper: services.NewSessionSweeper(db, rm, c.SweepInterval, logger),
	}, nil
}

func openStorage(ctx context.Context, c *config.Config, logger logging.Logger) (*sql.DB, repomanager.RepositoryManager, error) {
	switch c.StorageBackend {
	case config.StorageMemory:
		logger.Warn(ctx, "using in-memory storage, data is lost on restart")
		return nil, repomanager.NewInMemoryRepositoryManager(), nil

	case config.StoragePostgres:
		db, err := openPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}
		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			closeDB(db)
			return nil, nil, fmt.Errorf("db migration error: %w", err)
		}
		return db, rm, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

func closeDB(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a termination signal arrives or the HTTP server fails,
// then waits for the workers and releases the database pool.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg      sync.WaitGroup
		httpErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.http.Run(ctx); err != nil {
			app.logger.Error(ctx, "HTTP server failed", "error", err)
			httpErr = err
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sweeper.Run(ctx)
	}()

	wg.Wait()

	if err := closeDB(app.db); err != nil {
		app.logger.Error(ctx, "closing database failed", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
	return httpErr
}
