package web

import (
	"context"
	"net/http"

	"github.com/devtv/devtv/internal/logging"
	"github.com/devtv/devtv/internal/server/adapter"
	"github.com/devtv/devtv/internal/server/config"
	"github.com/devtv/devtv/internal/server/models"
	"github.com/devtv/devtv/internal/server/services"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Registrar creates users from validated signups.
type Registrar interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
}

// SessionManager opens, resolves and closes database sessions.
type SessionManager interface {
	SignInWithCredentials(ctx context.Context, email, password string) (*adapter.SessionAndUser, error)
	Session(ctx context.Context, token string) (*adapter.SessionAndUser, error)
	SignOut(ctx context.Context, token string) error
}

// AvatarStorage hands out presigned avatar URLs.
type AvatarStorage interface {
	BeginUpload(ctx context.Context, userID string) (*services.AvatarUpload, error)
	CompleteUpload(ctx context.Context, userID, key string) error
	DownloadURL(ctx context.Context, userID string) (string, error)
}

// Deps are the collaborators the HTTP layer calls into. HealthCheck may be nil.
type Deps struct {
	Registrar   Registrar
	Sessions    SessionManager
	Avatars     AvatarStorage
	Logger      logging.Logger
	HealthCheck func(ctx context.Context) error
}

type handlers struct {
	registrar     Registrar
	sessions      SessionManager
	avatars       AvatarStorage
	logger        logging.Logger
	healthCheck   func(ctx context.Context) error
	secretKey     []byte
	secureCookies bool
}

// NewRouter builds the echo instance with middleware and all routes.
func NewRouter(cfg *config.Config, deps Deps) (*echo.Echo, error) {
	renderer, err := newTemplateRenderer()
	if err != nil {
		return nil, err
	}

	h := &handlers{
		registrar:     deps.Registrar,
		sessions:      deps.Sessions,
		avatars:       deps.Avatars,
		logger:        deps.Logger.With("module", "web"),
		healthCheck:   deps.HealthCheck,
		secretKey:     []byte(cfg.SecretKey),
		secureCookies: cfg.SecureCookies,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = h.httpErrorHandler

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(requestLogger(h.logger))
	e.Use(secureHeaders())
	e.Use(middleware.BodyLimit("1M"))

	e.GET("/healthz", h.healthz)

	e.GET("/auth", h.authPage)
	e.POST("/auth", h.submitAuthPage)

	api := e.Group("/api")
	api.POST("/register", h.register)
	api.GET("/auth/csrf", h.csrf)
	api.POST("/auth/signin/credentials", h.signIn)
	api.GET("/auth/session", h.session)
	api.POST("/auth/signout", h.signOut)

	me := api.Group("/users/me", h.requireSession)
	me.POST("/avatar", h.beginAvatarUpload)
	me.PUT("/avatar", h.completeAvatarUpload)
	me.GET("/avatar", h.avatar)

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/auth")
	})

	return e, nil
}
