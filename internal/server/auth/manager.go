package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devtv/devtv/internal/common"
	"github.com/devtv/devtv/internal/logging"
	"github.com/devtv/devtv/internal/server/adapter"
	"github.com/devtv/devtv/internal/server/config"
	"github.com/devtv/devtv/internal/server/models"
)

// Authorizer verifies an email/password pair.
type Authorizer interface {
	Authorize(ctx context.Context, email, password string) (*models.User, error)
}

// Clock abstracts time for session expiry decisions.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Manager drives the storage adapter through the session lifecycle. Sessions
// live for MaxAge from their last renewal and are renewed at most once per
// UpdateAge while in use.
type Manager struct {
	adapter    adapter.Adapter
	authorizer Authorizer
	logger     logging.Logger
	clock      Clock
	maxAge     time.Duration
	updateAge  time.Duration
}

func NewManager(a adapter.Adapter, authorizer Authorizer, cfg *config.Config, logger logging.Logger) *Manager {
	return &Manager{
		adapter:    a,
		authorizer: authorizer,
		logger:     logger.With("module", "auth"),
		clock:      systemClock{},
		maxAge:     cfg.SessionMaxAge,
		updateAge:  cfg.SessionUpdateAge,
	}
}

// WithClock replaces the time source. Used by tests.
func (m *Manager) WithClock(c Clock) *Manager {
	m.clock = c
	return m
}

// SignInWithCredentials checks the password and opens a new session. The
// authorizer's error is returned unchanged on rejection.
func (m *Manager) SignInWithCredentials(ctx context.Context, email, password string) (*adapter.SessionAndUser, error) {
	u, err := m.authorizer.Authorize(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user := adapter.User{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Image:         u.Image,
	}
	return m.openSession(ctx, user)
}

// SignInWithOAuth resolves the user behind a provider account, creating and
// linking one on first sign-in, and opens a session. Existing users are not
// matched by email, so a first provider sign-in with an address that is
// already registered fails with common.ErrorAlreadyExists.
func (m *Manager) SignInWithOAuth(ctx context.Context, profile adapter.User, account adapter.Account) (*adapter.SessionAndUser, error) {
	user, err := m.adapter.GetUserByAccount(ctx, account.Provider, account.ProviderAccountID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user, err = m.adapter.GetUserByEmail(ctx, profile.Email)
		if err != nil {
			return nil, err
		}
	}

	if user == nil {
		user, err = m.createLinkedUser(ctx, profile, account)
		if err != nil {
			return nil, err
		}
	}

	return m.openSession(ctx, *user)
}

// createLinkedUser creates the user for a first provider sign-in and links
// the account to it. When a concurrent sign-in linked the same account
// first, the user created here is removed and the winner's user returned.
func (m *Manager) createLinkedUser(ctx context.Context, profile adapter.User, account adapter.Account) (*adapter.User, error) {
	user, err := m.adapter.CreateUser(ctx, profile)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return m.linkedUser(ctx, account, err)
		}
		return nil, err
	}

	account.UserID = user.ID
	if err := m.adapter.LinkAccount(ctx, account); err != nil {
		if !errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		if derr := m.adapter.DeleteUser(ctx, user.ID); derr != nil {
			m.logger.Warn(ctx, "failed to remove unlinked user", "user_id", user.ID, "error", derr)
		}
		return m.linkedUser(ctx, account, err)
	}

	m.logger.Info(ctx, "user created from provider account", "user_id", user.ID, "provider", account.Provider)
	return user, nil
}

// linkedUser re-reads the owner of account, returning cause when the
// account is still unlinked.
func (m *Manager) linkedUser(ctx context.Context, account adapter.Account, cause error) (*adapter.User, error) {
	user, err := m.adapter.GetUserByAccount(ctx, account.Provider, account.ProviderAccountID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, cause
	}
	return user, nil
}

// Session resolves a session token. Unknown and expired tokens yield nil;
// expired sessions are deleted on the way. An active session whose last
// renewal is older than UpdateAge gets its expiry pushed to now+MaxAge.
func (m *Manager) Session(ctx context.Context, token string) (*adapter.SessionAndUser, error) {
	if token == "" {
		return nil, nil
	}

	su, err := m.adapter.GetSessionAndUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if su == nil {
		return nil, nil
	}

	now := m.clock.Now()
	if !su.Session.Expires.After(now) {
		if err := m.adapter.DeleteSession(ctx, token); err != nil {
			return nil, err
		}
		return nil, nil
	}

	dueAt := su.Session.Expires.Add(-m.maxAge).Add(m.updateAge)
	if !now.Before(dueAt) {
		expires := now.Add(m.maxAge)
		updated, err := m.adapter.UpdateSession(ctx, adapter.SessionUpdate{SessionToken: token, Expires: &expires})
		if err != nil {
			return nil, err
		}
		if updated == nil {
			return nil, nil
		}
		su.Session = *updated
	}

	return su, nil
}

// SignOut deletes the session. Unknown tokens are ignored.
func (m *Manager) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.adapter.DeleteSession(ctx, token)
}

func (m *Manager) openSession(ctx context.Context, user adapter.User) (*adapter.SessionAndUser, error) {
	token, err := common.MakeRandHexString(common.SessionTokenSize)
	if err != nil {
		return nil, fmt.Errorf("error generating session token: %w", err)
	}

	sess, err := m.adapter.CreateSession(ctx, adapter.Session{
		SessionToken: token,
		UserID:       user.ID,
		Expires:      m.clock.Now().Add(m.maxAge),
	})
	if err != nil {
		return nil, err
	}

	return &adapter.SessionAndUser{Session: *sess, User: user}, nil
}
