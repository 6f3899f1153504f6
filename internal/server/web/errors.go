package web

import (
	"errors"
	"net/http"

	"github.com/devtv/devtv/internal/forms"
	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields forms.FieldErrors `json:"fields,omitempty"`
}

// httpErrorHandler renders every error as JSON. Errors that are not
// *echo.HTTPError are logged and reported as a bare 500.
func (h *handlers) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := errorResponse{Error: "internal error"}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			body.Error = msg
		} else {
			body.Error = http.StatusText(code)
		}
		if code >= http.StatusInternalServerError && he.Internal != nil {
			h.logger.Error(c.Request().Context(), "request failed", "error", he.Internal, "uri", c.Request().RequestURI)
		}
	} else {
		h.logger.Error(c.Request().Context(), "request failed", "error", err, "uri", c.Request().RequestURI)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, body)
	}
	if writeErr != nil {
		h.logger.Error(c.Request().Context(), "error response failed", "error", writeErr)
	}
}
