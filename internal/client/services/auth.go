// Package services contains the CLI's application services. AuthService
// drives the account commands against the server and keeps the resulting
// session in the local database.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/devtv/devtv/internal/client/api"
	"github.com/devtv/devtv/internal/client/repositories/metadata"
	"github.com/devtv/devtv/internal/dbx"
	"github.com/devtv/devtv/internal/forms"
	"github.com/devtv/devtv/internal/identity"
	"github.com/devtv/devtv/internal/netx"
)

// ErrNotSignedIn is returned when no usable session is stored locally.
var ErrNotSignedIn = errors.New("not signed in")

// Client is the part of the HTTP API the service needs.
type Client interface {
	Register(ctx context.Context, name, email, password string) (*identity.User, error)
	SignIn(ctx context.Context, email, password string) (*identity.SessionAndUser, error)
	Session(ctx context.Context, token string) (*identity.SessionAndUser, error)
	SignOut(ctx context.Context, token string) error
	Ping(ctx context.Context) error
	BeginAvatarUpload(ctx context.Context, token string) (*api.AvatarUpload, error)
	CompleteAvatarUpload(ctx context.Context, token, key string) error
	AvatarURL(ctx context.Context, token string) (string, error)
}

// AuthService implements register, login, whoami and logout.
type AuthService struct {
	client Client
	db     *sql.DB
	upload func(ctx context.Context, url string, body []byte, contentType string) error
}

func NewAuthService(client Client, db *sql.DB) *AuthService {
	return &AuthService{
		client: client,
		db:     db,
		upload: func(ctx context.Context, url string, body []byte, contentType string) error {
			return netx.UploadToPresignedURL(ctx, nil, url, body, contentType)
		},
	}
}

func (s *AuthService) metadataRepo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

// Register creates the account and signs straight in. Input is checked
// locally first; a forms.FieldErrors value is returned when it is rejected.
func (s *AuthService) Register(ctx context.Context, name, email string, password []byte) (*identity.SessionAndUser, error) {
	creds := forms.Credentials{Name: name, Email: email, Password: string(password)}.Normalize()
	if fe := forms.Validate(forms.ModeRegister, creds); fe != nil {
		return nil, fe
	}

	if _, err := s.client.Register(ctx, creds.Name, creds.Email, creds.Password); err != nil {
		return nil, err
	}

	return s.signIn(ctx, creds)
}

// Login signs in with email and password and stores the session.
func (s *AuthService) Login(ctx context.Context, email string, password []byte) (*identity.SessionAndUser, error) {
	creds := forms.Credentials{Email: email, Password: string(password)}.Normalize()
	if fe := forms.Validate(forms.ModeLogin, creds); fe != nil {
		return nil, fe
	}
	return s.signIn(ctx, creds)
}

func (s *AuthService) signIn(ctx context.Context, creds forms.Credentials) (*identity.SessionAndUser, error) {
	su, err := s.client.SignIn(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.metadataRepo(tx)
		if err := repo.Set(ctx, metadata.KeySessionToken, []byte(su.Session.SessionToken)); err != nil {
			return err
		}
		return repo.Set(ctx, metadata.KeyEmail, []byte(su.User.Email))
	})
	if err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return su, nil
}

// WhoAmI resolves the stored session on the server. A session the server
// no longer accepts is dropped locally and reported as ErrNotSignedIn.
func (s *AuthService) WhoAmI(ctx context.Context) (*identity.SessionAndUser, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	su, err := s.client.Session(ctx, token)
	if err != nil {
		return nil, err
	}
	if su == nil {
		if err := s.clear(ctx); err != nil {
			return nil, err
		}
		return nil, ErrNotSignedIn
	}
	return su, nil
}

// Logout ends the server session and forgets it locally. Without a stored
// session it does nothing.
func (s *AuthService) Logout(ctx context.Context) error {
	token, err := s.token(ctx)
	if errors.Is(err, ErrNotSignedIn) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.client.SignOut(ctx, token); err != nil {
		return err
	}
	return s.clear(ctx)
}

// Ping checks that the server is reachable and healthy.
func (s *AuthService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// SignedInEmail returns the email saved at the last sign-in, or "".
func (s *AuthService) SignedInEmail(ctx context.Context) (string, error) {
	v, err := s.metadataRepo(s.db).Get(ctx, metadata.KeyEmail)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *AuthService) token(ctx context.Context) (string, error) {
	v, err := s.metadataRepo(s.db).Get(ctx, metadata.KeySessionToken)
	if err != nil {
		return "", err
	}
	if len(v) == 0 {
		return "", ErrNotSignedIn
	}
	return string(v), nil
}

func (s *AuthService) clear(ctx context.Context) error {
	return s.metadataRepo(s.db).Delete(ctx, metadata.KeySessionToken, metadata.KeyEmail)
}
