package cli

import (
	"context"
	"io"
	"net/http"

	"github.com/devtv/devtv/internal/client/api"
	"github.com/devtv/devtv/internal/client/config"
	"github.com/devtv/devtv/internal/client/localdb"
	"github.com/devtv/devtv/internal/client/services"
	"github.com/devtv/devtv/internal/identity"
)

// AuthService is what the commands need from services.AuthService.
type AuthService interface {
	Register(ctx context.Context, name, email string, password []byte) (*identity.SessionAndUser, error)
	Login(ctx context.Context, email string, password []byte) (*identity.SessionAndUser, error)
	WhoAmI(ctx context.Context) (*identity.SessionAndUser, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	SetAvatar(ctx context.Context, path string) (string, error)
	AvatarURL(ctx context.Context) (string, error)
}

// Opener builds the AuthService for one command run. The returned Closer
// is called when the command finishes.
type Opener func(ctx context.Context, cfg *config.Config) (AuthService, io.Closer, error)

// OpenAuthService opens the local database and an API client for cfg.
func OpenAuthService(ctx context.Context, cfg *config.Config) (AuthService, io.Closer, error) {
	db, err := localdb.InitDatabase(ctx, cfg.DatabasePath())
	if err != nil {
		return nil, nil, err
	}

	client := api.New(cfg.ServerURL, &http.Client{Timeout: cfg.RequestTimeout})
	return services.NewAuthService(client, db), db, nil
}
