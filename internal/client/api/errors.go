package api

import (
	"errors"
	"strconv"

	"github.com/devtv/devtv/internal/forms"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrEmailTaken   = errors.New("email taken")
	ErrForbidden    = errors.New("request rejected by server")
	ErrNoAvatar     = errors.New("no avatar")
)

// ValidationError carries the per-field messages of a 400 response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return "validation failed: " + e.Summary()
}

// Summary lists the rejected fields without the error prefix.
func (e *ValidationError) Summary() string {
	return forms.FieldErrors(e.Fields).Summary()
}

// StatusError is returned for responses the client has no specific mapping for.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return "unexpected status " + strconv.Itoa(e.Code)
	}
	return "unexpected status " + strconv.Itoa(e.Code) + ": " + e.Message
}
