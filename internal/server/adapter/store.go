package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/devtv/devtv/internal/common"
	"github.com/devtv/devtv/internal/server/models"
	"github.com/devtv/devtv/internal/server/repositories/repomanager"
)

// Store implements Adapter on top of a RepositoryManager. db may be nil for
// backends that do not need a connection pool.
type Store struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

var _ Adapter = (*Store)(nil)

func NewStore(db *sql.DB, m repomanager.RepositoryManager) *Store {
	return &Store{db: db, repomanager: m}
}

func (s *Store) CreateUser(ctx context.Context, u User) (*User, error) {
	created, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Image:         u.Image,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return toUser(created), nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nilIfNotFound[User](err)
	}
	return toUser(u), nil
}

func (s *Store) GetUserByEmail(context.Context, string) (*User, error) {
	return nil, nil
}

func (s *Store) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*User, error) {
	u, err := s.repomanager.Accounts(s.db).GetUser(ctx, provider, providerAccountID)
	if err != nil {
		return nilIfNotFound[User](err)
	}
	return toUser(u), nil
}

func (s *Store) UpdateUser(ctx context.Context, upd UserUpdate) (*User, error) {
	u, err := s.repomanager.Users(s.db).Update(ctx, upd.ID, models.UserUpdate{
		Name:          upd.Name,
		Email:         upd.Email,
		EmailVerified: upd.EmailVerified,
		Image:         upd.Image,
	})
	if err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return toUser(u), nil
}

func (s *Store) LinkAccount(ctx context.Context, a Account) error {
	err := s.repomanager.Accounts(s.db).Create(ctx, &models.Account{
		UserID:            a.UserID,
		Type:              a.Type,
		Provider:          a.Provider,
		ProviderAccountID: a.ProviderAccountID,
		RefreshToken:      a.RefreshToken,
		AccessToken:       a.AccessToken,
		ExpiresAt:         a.ExpiresAt,
		TokenType:         a.TokenType,
		Scope:             a.Scope,
		IDToken:           a.IDToken,
		SessionState:      a.SessionState,
	})
	if err != nil {
		return fmt.Errorf("error linking account: %w", err)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, sess Session) (*Session, error) {
	created, err := s.repomanager.Sessions(s.db).Create(ctx, &models.Session{
		SessionToken: sess.SessionToken,
		UserID:       sess.UserID,
		Expires:      sess.Expires,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}
	return toSession(created), nil
}

func (s *Store) GetSessionAndUser(ctx context.Context, sessionToken string) (*SessionAndUser, error) {
	sess, u, err := s.repomanager.Sessions(s.db).FindWithUser(ctx, sessionToken)
	if err != nil {
		return nilIfNotFound[SessionAndUser](err)
	}
	return &SessionAndUser{Session: *toSession(sess), User: *toUser(u)}, nil
}

// UpdateSession returns nil, nil when the token does not exist.
func (s *Store) UpdateSession(ctx context.Context, upd SessionUpdate) (*Session, error) {
	sess, err := s.repomanager.Sessions(s.db).Update(ctx, upd.SessionToken, models.SessionUpdate{
		Expires: upd.Expires,
		UserID:  upd.UserID,
	})
	if err != nil {
		return nilIfNotFound[Session](err)
	}
	return toSession(sess), nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionToken string) error {
	if err := s.repomanager.Sessions(s.db).Delete(ctx, sessionToken); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

func nilIfNotFound[T any](err error) (*T, error) {
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	return nil, err
}

func toUser(u *models.User) *User {
	return &User{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Image:         u.Image,
	}
}

func toSession(s *models.Session) *Session {
	return &Session{SessionToken: s.SessionToken, UserID: s.UserID, Expires: s.Expires}
}
