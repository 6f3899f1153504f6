package services

import (
	"context"
	"testing"
	"time"

	"github.com/devtv/devtv/internal/common"
	"github.com/devtv/devtv/internal/logging"
	"github.com/devtv/devtv/internal/server/models"
	"github.com/devtv/devtv/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSessions(t *testing.T, m repomanager.RepositoryManager, expires ...time.Time) {
	t.Helper()
	ctx := context.Background()
	u, err := m.Users(nil).Create(ctx, &models.User{Name: "Neo"})
	require.NoError(t, err)
	for i, exp := range expires {
		_, err := m.Sessions(nil).Create(ctx, &models.Session{
			SessionToken: string(rune('a' + i)),
			UserID:       u.ID,
			Expires:      exp,
		})
		require.NoError(t, err)
	}
}

func TestSessionSweeper_Sweep(t *testing.T) {
	m := repomanager.NewInMemoryRepositoryManager()
	now := time.Now()
	seedSessions(t, m, now.Add(-time.Hour), now.Add(time.Hour))

	s := NewSessionSweeper(nil, m, time.Hour, logging.Nop())
	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, _, err = m.Sessions(nil).FindWithUser(context.Background(), "a")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, _, err = m.Sessions(nil).FindWithUser(context.Background(), "b")
	assert.NoError(t, err)
}

func TestSessionSweeper_RunStopsWithContext(t *testing.T) {
	m := repomanager.NewInMemoryRepositoryManager()
	seedSessions(t, m, time.Now().Add(-time.Minute))

	s := NewSessionSweeper(nil, m, 5*time.Millisecond, logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		_, _, err := m.Sessions(nil).FindWithUser(context.Background(), "a")
		return err != nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSessionSweeper_DisabledReturns(t *testing.T) {
	s := NewSessionSweeper(nil, repomanager.NewInMemoryRepositoryManager(), 0, logging.Nop())
	s.Run(context.Background())
}
