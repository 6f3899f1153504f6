package web

import (
	"encoding/hex"
	"net/http"
	"time"

	"github.com/devtv/devtv/internal/common"
	"github.com/devtv/devtv/internal/server/auth"
	"github.com/labstack/echo/v4"
)

func sessionToken(c echo.Context) string {
	cookie, err := c.Cookie(common.SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *handlers) setSessionCookie(c echo.Context, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies,
	})
}

func (h *handlers) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies,
	})
}

func csrfNonce(c echo.Context) string {
	cookie, err := c.Cookie(common.CSRFCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// issueCSRFToken returns a CSRF token bound to the browser's nonce cookie.
// A well-formed nonce is kept and a missing or malformed one replaced.
func (h *handlers) issueCSRFToken(c echo.Context) (string, error) {
	nonce := csrfNonce(c)
	if b, err := hex.DecodeString(nonce); err != nil || len(b) != auth.CSRFNonceSize {
		if nonce, err = auth.NewCSRFNonce(); err != nil {
			return "", err
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     common.CSRFCookieName,
		Value:    nonce,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies,
	})
	return auth.GenerateCSRFToken(h.secretKey, nonce, csrfTokenValidity)
}

// validCSRF reports whether token was issued to this browser.
func (h *handlers) validCSRF(c echo.Context, token string) bool {
	return auth.ValidateCSRFToken(token, csrfNonce(c), h.secretKey) == nil
}
