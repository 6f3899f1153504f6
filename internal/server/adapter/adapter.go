// Package adapter bridges the auth layer's storage lifecycle (users, linked
// provider accounts and database sessions) onto the repositories. Every read
// goes through a unique key and reports absence as a nil result, never as an
// error.
package adapter

import (
	"context"
	"time"

	"github.com/devtv/devtv/internal/identity"
)

// User is the normalized user view handed to the auth layer.
type User = identity.User

// UserUpdate carries the fields of an UpdateUser call. Nil fields are kept.
type UserUpdate struct {
	ID            string
	Name          *string
	Email         *string
	EmailVerified *time.Time
	Image         *string
}

// Account is a provider identity together with the token material the
// provider returned on sign-in.
type Account struct {
	UserID            string
	Type              string
	Provider          string
	ProviderAccountID string
	RefreshToken      *string
	AccessToken       *string
	ExpiresAt         *int64
	TokenType         *string
	Scope             *string
	IDToken           *string
	SessionState      *string
}

// Session is the (token, user, expiry) triple the auth layer works with.
type Session = identity.Session

// SessionUpdate targets the session with SessionToken. Nil fields are kept.
type SessionUpdate struct {
	SessionToken string
	Expires      *time.Time
	UserID       *string
}

// SessionAndUser pairs a session with its owner.
type SessionAndUser = identity.SessionAndUser

// Adapter is the capability set the auth layer expects from any storage
// backend. Read methods return nil, nil when nothing matches.
type Adapter interface {
	CreateUser(ctx context.Context, u User) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)

	// GetUserByEmail is not supported and always reports no user, so
	// accounts are never linked or recovered by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*User, error)
	UpdateUser(ctx context.Context, upd UserUpdate) (*User, error)
	LinkAccount(ctx context.Context, a Account) error
	// DeleteUser removes the user with its accounts and sessions. A missing
	// user is not an error.
	DeleteUser(ctx context.Context, id string) error

	CreateSession(ctx context.Context, s Session) (*Session, error)
	GetSessionAndUser(ctx context.Context, sessionToken string) (*SessionAndUser, error)
	UpdateSession(ctx context.Context, upd SessionUpdate) (*Session, error)

	// DeleteSession removes the session. A missing token is not an error.
	DeleteSession(ctx context.Context, sessionToken string) error
}
