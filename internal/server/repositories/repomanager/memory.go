package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/devtv/devtv/internal/common"
	"github.com/devtv/devtv/internal/dbx"
	"github.com/devtv/devtv/internal/server/models"
	"github.com/devtv/devtv/internal/server/repositories/accounts"
	"github.com/devtv/devtv/internal/server/repositories/sessions"
	"github.com/devtv/devtv/internal/server/repositories/users"
	"github.com/google/uuid"
)

// InMemoryRepositoryManager keeps users, accounts and sessions in process
// memory. Every operation runs under one mutex, so the unique keys (email,
// provider account, session token) are enforced atomically just like the
// database constraints. WithTx gives no rollback.
type InMemoryRepositoryManager struct {
	store *memoryStore
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: &memoryStore{
		users:    make(map[string]models.User),
		emails:   make(map[string]string),
		accounts: make(map[accountKey]models.Account),
		sessions: make(map[string]models.Session),
	}}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, _ *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return memoryUsers{m.store}
}

func (m *InMemoryRepositoryManager) Accounts(dbx.DBTX) accounts.Repository {
	return memoryAccounts{m.store}
}

func (m *InMemoryRepositoryManager) Sessions(dbx.DBTX) sessions.Repository {
	return memorySessions{m.store}
}

type accountKey struct {
	provider, providerAccountID string
}

type memoryStore struct {
	mu       sync.Mutex
	users    map[string]models.User // by id
	emails   map[string]string      // email -> user id
	accounts map[accountKey]models.Account
	sessions map[string]models.Session // by token
}

type memoryUsers struct{ s *memoryStore }

func (r memoryUsers) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if user.Email != "" {
		if _, taken := r.s.emails[user.Email]; taken {
			return nil, fmt.Errorf("%w: email %q", common.ErrorAlreadyExists, user.Email)
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now

	r.s.users[user.ID] = *cloneUser(*user)
	if user.Email != "" {
		r.s.emails[user.Email] = user.ID
	}
	return cloneUser(*user), nil
}

func (r memoryUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.emails[email]
	if !ok || email == "" {
		return nil, common.ErrorNotFound
	}
	return cloneUser(r.s.users[id]), nil
}

func (r memoryUsers) Update(_ context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.Email != nil && *upd.Email != "" && *upd.Email != u.Email {
		if _, taken := r.s.emails[*upd.Email]; taken {
			return nil, fmt.Errorf("%w: email %q", common.ErrorAlreadyExists, *upd.Email)
		}
		delete(r.s.emails, u.Email)
		u.Email = *upd.Email
		r.s.emails[u.Email] = u.ID
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.EmailVerified != nil {
		v := *upd.EmailVerified
		u.EmailVerified = &v
	}
	if upd.Image != nil {
		u.Image = *upd.Image
	}
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return cloneUser(u), nil
}

func (r memoryUsers) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil
	}
	delete(r.s.users, id)
	if u.Email != "" {
		delete(r.s.emails, u.Email)
	}
	for key, a := range r.s.accounts {
		if a.UserID == id {
			delete(r.s.accounts, key)
		}
	}
	for token, sess := range r.s.sessions {
		if sess.UserID == id {
			delete(r.s.sessions, token)
		}
	}
	return nil
}

// cloneUser copies u so no pointer field is shared with the stored row.
func cloneUser(u models.User) *models.User {
	if u.EmailVerified != nil {
		v := *u.EmailVerified
		u.EmailVerified = &v
	}
	return &u
}

type memoryAccounts struct{ s *memoryStore }

func (r memoryAccounts) Create(_ context.Context, a *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := accountKey{a.Provider, a.ProviderAccountID}
	if _, exists := r.s.accounts[key]; exists {
		return fmt.Errorf("%w: account %s/%s", common.ErrorAlreadyExists, a.Provider, a.ProviderAccountID)
	}
	if _, ok := r.s.users[a.UserID]; !ok {
		return fmt.Errorf("db error: account references unknown user %q", a.UserID)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now()
	r.s.accounts[key] = *a
	return nil
}

func (r memoryAccounts) GetUser(_ context.Context, provider, providerAccountID string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accounts[accountKey{provider, providerAccountID}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u, ok := r.s.users[a.UserID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

type memorySessions struct{ s *memoryStore }

func (r memorySessions) Create(_ context.Context, s *models.Session) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.sessions[s.SessionToken]; exists {
		return nil, fmt.Errorf("%w: session token", common.ErrorAlreadyExists)
	}
	if _, ok := r.s.users[s.UserID]; !ok {
		return nil, fmt.Errorf("db error: session references unknown user %q", s.UserID)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	r.s.sessions[s.SessionToken] = *s
	out := *s
	return &out, nil
}

func (r memorySessions) FindWithUser(_ context.Context, token string) (*models.Session, *models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	s, ok := r.s.sessions[token]
	if !ok {
		return nil, nil, common.ErrorNotFound
	}
	u, ok := r.s.users[s.UserID]
	if !ok {
		return nil, nil, common.ErrorNotFound
	}
	return &s, cloneUser(u), nil
}

func (r memorySessions) Update(_ context.Context, token string, upd models.SessionUpdate) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	s, ok := r.s.sessions[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.UserID != nil {
		if _, ok := r.s.users[*upd.UserID]; !ok {
			return nil, fmt.Errorf("db error: session references unknown user %q", *upd.UserID)
		}
		s.UserID = *upd.UserID
	}
	if upd.Expires != nil {
		s.Expires = *upd.Expires
	}
	r.s.sessions[token] = s
	return &s, nil
}

func (r memorySessions) Delete(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.sessions, token)
	return nil
}

func (r memorySessions) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for token, s := range r.s.sessions {
		if s.Expires.Before(before) {
			delete(r.s.sessions, token)
			n++
		}
	}
	return n, nil
}
