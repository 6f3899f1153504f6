package repomanager

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devtv/devtv/internal/common"
	"github.com/devtv/devtv/internal/dbx"
	"github.com/devtv/devtv/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_SatisfiesInterface(t *testing.T) {
	var _ RepositoryManager = NewInMemoryRepositoryManager()
}

func TestInMemory_UsersUniqueEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepositoryManager().Users(nil)

	u, err := repo.Create(ctx, &models.User{Name: "Neo", Email: "neo@devtv.io"})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)

	_, err = repo.Create(ctx, &models.User{Name: "Impostor", Email: "neo@devtv.io"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	// users without email never collide
	_, err = repo.Create(ctx, &models.User{Name: "a"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.User{Name: "b"})
	require.NoError(t, err)

	got, err := repo.GetByEmail(ctx, "neo@devtv.io")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.GetByEmail(ctx, "")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInMemory_ConcurrentCreateSameEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepositoryManager().Users(nil)

	var ok, dup atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(ctx, &models.User{Name: fmt.Sprint(i), Email: "race@devtv.io"})
			if err == nil {
				ok.Add(1)
			} else if assert.ErrorIs(t, err, common.ErrorAlreadyExists) {
				dup.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, 15, dup.Load())
}

func TestInMemory_UsersUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepositoryManager().Users(nil)

	a, err := repo.Create(ctx, &models.User{Name: "A", Email: "a@devtv.io"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.User{Name: "B", Email: "b@devtv.io"})
	require.NoError(t, err)

	taken := "b@devtv.io"
	_, err = repo.Update(ctx, a.ID, models.UserUpdate{Email: &taken})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	name, email := "A2", "a2@devtv.io"
	got, err := repo.Update(ctx, a.ID, models.UserUpdate{Name: &name, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Name)
	assert.Equal(t, "a2@devtv.io", got.Email)

	_, err = repo.GetByEmail(ctx, "a@devtv.io")
	assert.ErrorIs(t, err, common.ErrorNotFound, "old email must be released")

	_, err = repo.Update(ctx, "ghost", models.UserUpdate{Name: &name})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInMemory_Accounts(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()

	u, err := m.Users(nil).Create(ctx, &models.User{Name: "Morpheus"})
	require.NoError(t, err)

	acc := &models.Account{UserID: u.ID, Type: "oauth", Provider: "github", ProviderAccountID: "gh-1"}
	require.NoError(t, m.Accounts(nil).Create(ctx, acc))

	err = m.Accounts(nil).Create(ctx, &models.Account{UserID: u.ID, Provider: "github", ProviderAccountID: "gh-1"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	err = m.Accounts(nil).Create(ctx, &models.Account{UserID: "ghost", Provider: "google", ProviderAccountID: "g-1"})
	assert.Error(t, err)

	got, err := m.Accounts(nil).GetUser(ctx, "github", "gh-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = m.Accounts(nil).GetUser(ctx, "google", "gh-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInMemory_SessionsLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()
	repo := m.Sessions(nil)

	u, err := m.Users(nil).Create(ctx, &models.User{Name: "Neo"})
	require.NoError(t, err)

	expires := time.Now().Add(time.Hour)
	_, err = repo.Create(ctx, &models.Session{SessionToken: "t1", UserID: u.ID, Expires: expires})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.Session{SessionToken: "t2", UserID: u.ID, Expires: expires})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.Session{SessionToken: "t1", UserID: u.ID, Expires: expires})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	later := expires.Add(time.Hour)
	s, err := repo.Update(ctx, "t1", models.SessionUpdate{Expires: &later})
	require.NoError(t, err)
	assert.True(t, s.Expires.Equal(later))

	other, _, err := repo.FindWithUser(ctx, "t2")
	require.NoError(t, err)
	assert.True(t, other.Expires.Equal(expires), "other sessions untouched")

	_, err = repo.Update(ctx, "missing", models.SessionUpdate{Expires: &later})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, repo.Delete(ctx, "t1"))
	require.NoError(t, repo.Delete(ctx, "t1"), "second delete is a no-op")

	_, _, err = repo.FindWithUser(ctx, "t1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInMemory_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()

	u, err := m.Users(nil).Create(ctx, &models.User{Name: "Neo"})
	require.NoError(t, err)

	now := time.Now()
	for i, exp := range []time.Time{now.Add(-time.Hour), now.Add(-time.Minute), now.Add(time.Hour)} {
		_, err := m.Sessions(nil).Create(ctx, &models.Session{SessionToken: fmt.Sprint("t", i), UserID: u.ID, Expires: exp})
		require.NoError(t, err)
	}

	n, err := m.Sessions(nil).DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, _, err = m.Sessions(nil).FindWithUser(ctx, "t2")
	assert.NoError(t, err)
}

func TestInMemory_WithTxRunsFn(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	called := false
	err := m.WithTx(context.Background(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestInMemory_UsersDoNotShareEmailVerified(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepositoryManager().Users(nil)

	verified := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := &models.User{Name: "Neo", Email: "neo@devtv.io", EmailVerified: &verified}
	created, err := repo.Create(ctx, in)
	require.NoError(t, err)

	verified = verified.Add(time.Hour)
	*created.EmailVerified = time.Time{}

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EmailVerified)
	assert.True(t, got.EmailVerified.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	*got.EmailVerified = time.Time{}
	again, err := repo.GetByEmail(ctx, "neo@devtv.io")
	require.NoError(t, err)
	assert.False(t, again.EmailVerified.IsZero(), "returned copies are independent")
}

func TestInMemory_UsersDeleteCascades(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()

	u, err := m.Users(nil).Create(ctx, &models.User{Name: "Neo", Email: "neo@devtv.io"})
	require.NoError(t, err)
	require.NoError(t, m.Accounts(nil).Create(ctx, &models.Account{UserID: u.ID, Type: "oauth", Provider: "github", ProviderAccountID: "1"}))
	_, err = m.Sessions(nil).Create(ctx, &models.Session{SessionToken: "tok", UserID: u.ID, Expires: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	require.NoError(t, m.Users(nil).Delete(ctx, u.ID))
	require.NoError(t, m.Users(nil).Delete(ctx, u.ID), "missing user is not an error")

	_, err = m.Users(nil).GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = m.Accounts(nil).GetUser(ctx, "github", "1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, _, err = m.Sessions(nil).FindWithUser(ctx, "tok")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = m.Users(nil).Create(ctx, &models.User{Name: "Neo again", Email: "neo@devtv.io"})
	assert.NoError(t, err, "email is free again")
}
