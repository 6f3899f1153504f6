// Package services contains server-side business logic. This file implements
// CredentialService, which registers users with a hashed password and
// verifies credential sign-ins.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/devtv/devtv/internal/common"
	"github.com/devtv/devtv/internal/dbx"
	"github.com/devtv/devtv/internal/server/auth"
	"github.com/devtv/devtv/internal/server/config"
	"github.com/devtv/devtv/internal/server/models"
	"github.com/devtv/devtv/internal/server/repositories/repomanager"
)

var (
	// ErrDuplicateEmail is returned by Register when the email is already taken.
	ErrDuplicateEmail = errors.New("email taken")

	// ErrInvalidCredentials is returned by Authorize for an unknown email and
	// for a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// CredentialService provides email/password operations:
// - Register: create a user with a bcrypt-hashed password
// - Authorize: verify an email/password pair for sign-in
type CredentialService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	bcryptCost   int
	markVerified bool
	now          func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentialService constructs a CredentialService using repositories and server config.
func NewCredentialService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *CredentialService {
	return &CredentialService{
		db:           db,
		repomanager:  m,
		bcryptCost:   cfg.BcryptCost,
		markVerified: cfg.MarkSelfRegisteredVerified,
		now:          time.Now,
	}
}

// Register creates a user for a validated signup. The email lookup and the
// insert share one transaction, and a unique violation raised by a
// concurrent registration is reported as ErrDuplicateEmail too.
func (s *CredentialService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	var created *models.User
	err = s.repomanager.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.GetByEmail(ctx, email)
		if err == nil {
			return ErrDuplicateEmail
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("error looking up email: %w", err)
		}

		user := &models.User{
			Name:           name,
			Email:          email,
			HashedPassword: hash,
		}
		if s.markVerified {
			now := s.now()
			user.EmailVerified = &now
		}

		created, err = repo.Create(ctx, user)
		if errors.Is(err, common.ErrorAlreadyExists) {
			return ErrDuplicateEmail
		}
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Authorize returns the user owning email if password matches. Users without
// a stored password (created through OAuth) can't sign in with credentials.
func (s *CredentialService) Authorize(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// keep timing close to the wrong-password path
			auth.CheckPassword(s.getDummyHash(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	if user.HashedPassword == "" || !auth.CheckPassword(user.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *CredentialService) getDummyHash() string {
	s.dummyOnce.Do(func() {
		token, err := common.MakeRandHexString(16)
		if err != nil {
			return
		}
		s.dummyHash, _ = auth.HashPassword(token, s.bcryptCost)
	})
	return s.dummyHash
}
