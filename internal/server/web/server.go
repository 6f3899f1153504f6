// Package web exposes the auth backend over HTTP: the JSON API consumed by
// the CLI and browser clients and the server-rendered login/register page.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/devtv/devtv/internal/logging"
	"github.com/devtv/devtv/internal/server/config"
	"github.com/labstack/echo/v4"
)

const shutdownTimeout = 10 * time.Second

// HTTPServer serves the echo router on the configured address.
type HTTPServer struct {
	address string
	echo    *echo.Echo
	logger  logging.Logger
}

func NewHTTPServer(cfg *config.Config, deps Deps) (*HTTPServer, error) {
	e, err := NewRouter(cfg, deps)
	if err != nil {
		return nil, err
	}

	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	return &HTTPServer{
		address: cfg.HTTPAddr,
		echo:    e,
		logger:  deps.Logger.With("module", "http_server"),
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully. It returns
// only after in-flight requests have drained or the shutdown timed out.
func (s *HTTPServer) Run(ctx context.Context) error {
	stopped := make(chan struct{})
	shutdownDone := make(chan struct{})

	go func() {
		defer close(shutdownDone)
		select {
		case <-ctx.Done():
		case <-stopped:
			return
		}
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	err := s.echo.Start(s.address)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		close(stopped)
		<-shutdownDone
		return err
	}

	// Start returns as soon as Shutdown begins.
	<-shutdownDone
	return nil
}
