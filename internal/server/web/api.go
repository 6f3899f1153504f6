package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/devtv/devtv/internal/forms"
	"github.com/devtv/devtv/internal/server/services"
	"github.com/labstack/echo/v4"
)

const csrfTokenValidity = time.Hour

type csrfRequest struct {
	CSRFToken string `json:"csrfToken" form:"csrfToken"`
}

type avatarRequest struct {
	Key string `json:"key" form:"key"`
}

type signInRequest struct {
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
	CSRFToken string `json:"csrfToken" form:"csrfToken"`
}

func (h *handlers) healthz(c echo.Context) error {
	if h.healthCheck != nil {
		if err := h.healthCheck(c.Request().Context()); err != nil {
			h.logger.Warn(c.Request().Context(), "health check failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// register handles POST /api/register.
func (h *handlers) register(c echo.Context) error {
	var req forms.Credentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	req = req.Normalize()
	if fe := forms.Validate(forms.ModeRegister, req); fe != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: fe})
	}

	user, err := h.registrar.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateEmail) {
			return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "Email taken"})
		}
		return err
	}

	h.logger.Info(c.Request().Context(), "user registered", "user_id", user.ID)
	return c.JSON(http.StatusCreated, map[string]any{"user": user})
}

// csrf handles GET /api/auth/csrf. The token is only accepted together
// with the nonce cookie set on the same response.
func (h *handlers) csrf(c echo.Context) error {
	token, err := h.issueCSRFToken(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"csrfToken": token})
}

// signIn handles POST /api/auth/signin/credentials.
func (h *handlers) signIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := h.checkCSRF(c, req.CSRFToken); err != nil {
		return err
	}

	creds := forms.Credentials{Email: req.Email, Password: req.Password}.Normalize()
	if fe := forms.Validate(forms.ModeLogin, creds); fe != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: fe})
	}

	su, err := h.sessions.SignInWithCredentials(c.Request().Context(), creds.Email, creds.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.logger.Warn(c.Request().Context(), "sign-in rejected", "email", creds.Email)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	h.setSessionCookie(c, su.Session.SessionToken, su.Session.Expires)
	return c.JSON(http.StatusOK, su)
}

// session handles GET /api/auth/session. Without an active session the body
// is an empty object.
func (h *handlers) session(c echo.Context) error {
	su, err := h.currentSession(c)
	if err != nil {
		return err
	}
	if su == nil {
		return c.JSON(http.StatusOK, struct{}{})
	}
	return c.JSON(http.StatusOK, su)
}

// signOut handles POST /api/auth/signout. Form posts from the auth page are
// redirected back to it.
func (h *handlers) signOut(c echo.Context) error {
	var req csrfRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := h.checkCSRF(c, req.CSRFToken); err != nil {
		return err
	}

	if err := h.sessions.SignOut(c.Request().Context(), sessionToken(c)); err != nil {
		return err
	}
	h.clearSessionCookie(c)

	if isFormPost(c) {
		return c.Redirect(http.StatusSeeOther, "/auth")
	}
	return c.JSON(http.StatusOK, struct{}{})
}

// beginAvatarUpload handles POST /api/users/me/avatar.
func (h *handlers) beginAvatarUpload(c echo.Context) error {
	su := sessionFrom(c)

	up, err := h.avatars.BeginUpload(c.Request().Context(), su.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, up)
}

// completeAvatarUpload handles PUT /api/users/me/avatar, making an uploaded
// key the user's image.
func (h *handlers) completeAvatarUpload(c echo.Context) error {
	su := sessionFrom(c)

	var req avatarRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	if err := h.avatars.CompleteUpload(c.Request().Context(), su.User.ID, req.Key); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAvatarKey):
			return echo.NewHTTPError(http.StatusBadRequest, "invalid avatar key")
		case errors.Is(err, services.ErrUploadNotFound):
			return echo.NewHTTPError(http.StatusConflict, "avatar upload not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"image": req.Key})
}

// avatar handles GET /api/users/me/avatar.
func (h *handlers) avatar(c echo.Context) error {
	su := sessionFrom(c)

	url, err := h.avatars.DownloadURL(c.Request().Context(), su.User.ID)
	if err != nil {
		if errors.Is(err, services.ErrNoAvatar) {
			return echo.NewHTTPError(http.StatusNotFound, "no avatar")
		}
		return err
	}
	return c.Redirect(http.StatusFound, url)
}

func (h *handlers) checkCSRF(c echo.Context, token string) error {
	if !h.validCSRF(c, token) {
		return echo.NewHTTPError(http.StatusForbidden, "invalid csrf token")
	}
	return nil
}

func isFormPost(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm)
}
