package web

import (
	"net/http"

	"github.com/devtv/devtv/internal/logging"
	"github.com/devtv/devtv/internal/server/adapter"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const sessionKey = "session"

// requestLogger writes one structured entry per request.
func requestLogger(logger logging.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info(c.Request().Context(), "request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			)
			return nil
		},
	})
}

func secureHeaders() echo.MiddlewareFunc {
	return middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'",
		ReferrerPolicy:        "same-origin",
	})
}

// requireSession resolves the session cookie and rejects the request with
// 401 when there is no active session.
func (h *handlers) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		su, err := h.currentSession(c)
		if err != nil {
			return err
		}
		if su == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
		}

		c.Set(sessionKey, su)
		return next(c)
	}
}

func sessionFrom(c echo.Context) *adapter.SessionAndUser {
	su, _ := c.Get(sessionKey).(*adapter.SessionAndUser)
	return su
}

// currentSession resolves the session cookie, refreshing the cookie when
// the session was renewed and clearing it when the session is gone.
func (h *handlers) currentSession(c echo.Context) (*adapter.SessionAndUser, error) {
	token := sessionToken(c)
	if token == "" {
		return nil, nil
	}

	su, err := h.sessions.Session(c.Request().Context(), token)
	if err != nil {
		return nil, err
	}
	if su == nil {
		h.clearSessionCookie(c)
		return nil, nil
	}

	h.setSessionCookie(c, su.Session.SessionToken, su.Session.Expires)
	return su, nil
}
