package web

import (
	"errors"
	"net/http"

	"github.com/devtv/devtv/internal/forms"
	"github.com/devtv/devtv/internal/server/adapter"
	"github.com/devtv/devtv/internal/server/services"
	"github.com/labstack/echo/v4"
)

const (
	authTemplate = "auth"

	actionSubmit         = "submit"
	actionTogglePassword = "toggle-password"
)

// authPageData feeds the "auth" template.
type authPageData struct {
	Register     bool
	CSRFToken    string
	Name         string
	Email        string
	Password     string
	ShowPassword bool
	Errors       forms.FieldErrors
	FormError    string
	User         *adapter.User
}

// FieldError returns the message for one field, or "".
func (d authPageData) FieldError(name string) string {
	return d.Errors[name]
}

type authForm struct {
	forms.Credentials
	Mode         string `form:"mode"`
	Action       string `form:"action"`
	ShowPassword bool   `form:"show_password"`
	CSRFToken    string `form:"csrfToken"`
}

// authPage handles GET /auth?mode=login|register.
func (h *handlers) authPage(c echo.Context) error {
	su, err := h.currentSession(c)
	if err != nil {
		return err
	}

	data := authPageData{Register: forms.ParseMode(c.QueryParam("mode")) == forms.ModeRegister}
	if su != nil {
		data.User = &su.User
	}
	return h.renderAuth(c, http.StatusOK, data)
}

// submitAuthPage handles POST /auth. Field errors re-render the form
// without touching storage.
func (h *handlers) submitAuthPage(c echo.Context) error {
	var f authForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed form")
	}

	mode := forms.ParseMode(f.Mode)
	creds := f.Credentials.Normalize()
	data := authPageData{
		Register:     mode == forms.ModeRegister,
		Name:         creds.Name,
		Email:        creds.Email,
		ShowPassword: f.ShowPassword,
	}

	if f.Action == actionTogglePassword {
		data.ShowPassword = !f.ShowPassword
		data.Password = f.Password
		return h.renderAuth(c, http.StatusOK, data)
	}

	if !h.validCSRF(c, f.CSRFToken) {
		data.FormError = "The form expired, please try again."
		return h.renderAuth(c, http.StatusForbidden, data)
	}

	if fe := forms.Validate(mode, creds); fe != nil {
		data.Errors = fe
		return h.renderAuth(c, http.StatusBadRequest, data)
	}

	ctx := c.Request().Context()

	if mode == forms.ModeRegister {
		if _, err := h.registrar.Register(ctx, creds.Name, creds.Email, creds.Password); err != nil {
			if errors.Is(err, services.ErrDuplicateEmail) {
				data.Errors = forms.FieldErrors{forms.FieldEmail: "Email taken"}
				return h.renderAuth(c, http.StatusUnprocessableEntity, data)
			}
			h.logger.Error(ctx, "registration failed", "error", err)
			data.FormError = "Something went wrong, please try again."
			return h.renderAuth(c, http.StatusInternalServerError, data)
		}
	}

	su, err := h.sessions.SignInWithCredentials(ctx, creds.Email, creds.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.logger.Warn(ctx, "sign-in rejected", "email", creds.Email)
			data.FormError = "Invalid e-mail or password."
			return h.renderAuth(c, http.StatusUnauthorized, data)
		}
		h.logger.Error(ctx, "sign-in failed", "error", err)
		data.FormError = "Something went wrong, please try again."
		return h.renderAuth(c, http.StatusInternalServerError, data)
	}

	h.setSessionCookie(c, su.Session.SessionToken, su.Session.Expires)
	return c.Redirect(http.StatusSeeOther, "/auth")
}

// renderAuth renders the page with a fresh CSRF token.
func (h *handlers) renderAuth(c echo.Context, code int, data authPageData) error {
	token, err := h.issueCSRFToken(c)
	if err != nil {
		return err
	}
	data.CSRFToken = token
	return c.Render(code, authTemplate, data)
}
