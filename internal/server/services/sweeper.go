package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/devtv/devtv/internal/logging"
	"github.com/devtv/devtv/internal/server/repositories/repomanager"
)

// SessionSweeper periodically deletes sessions that are past their expiry.
type SessionSweeper struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	interval    time.Duration
	logger      logging.Logger
	now         func() time.Time
}

func NewSessionSweeper(db *sql.DB, m repomanager.RepositoryManager, interval time.Duration, logger logging.Logger) *SessionSweeper {
	return &SessionSweeper{
		db:          db,
		repomanager: m,
		interval:    interval,
		logger:      logger.With("module", "session_sweeper"),
		now:         time.Now,
	}
}

// Sweep runs one cleanup pass and reports how many sessions were removed.
func (s *SessionSweeper) Sweep(ctx context.Context) (int64, error) {
	return s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now())
}

// Run sweeps every interval until ctx is cancelled. Failed passes are
// logged and retried on the next tick.
func (s *SessionSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Warn(ctx, "session sweeper disabled", "interval", s.interval)
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				s.logger.Error(ctx, "expired session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info(ctx, "expired sessions removed", "count", n)
			}
		}
	}
}
