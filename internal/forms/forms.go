// Package forms validates the login and registration form shared by the
// server-rendered auth page, the JSON API and the CLI client.
package forms

import (
	"net/mail"
	"sort"
	"strings"
)

// Mode selects which fields the auth form requires.
type Mode string

const (
	ModeLogin    Mode = "login"
	ModeRegister Mode = "register"
)

// ParseMode maps a query or form value to a Mode, defaulting to login.
func ParseMode(s string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(s))) == ModeRegister {
		return ModeRegister
	}
	return ModeLogin
}

// Field names used as FieldErrors keys.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPassword = "password"
)

const (
	MinPasswordLen = 6

	// MaxPasswordBytes is the longest password bcrypt accepts.
	MaxPasswordBytes = 72
)

// Credentials is the raw form input.
type Credentials struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Normalize trims surrounding whitespace from name and email. The password
// is taken as typed.
func (c Credentials) Normalize() Credentials {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	return c
}

// FieldErrors maps a field name to its message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	return "invalid form: " + fe.Summary()
}

// Summary lists the "field: message" pairs sorted by field name.
func (fe FieldErrors) Summary() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// Validate checks c for the given mode and returns nil when it is valid.
// Callers should pass normalized credentials.
func Validate(mode Mode, c Credentials) FieldErrors {
	fe := FieldErrors{}

	if mode == ModeRegister && c.Name == "" {
		fe[FieldName] = "Username is required"
	}

	if !IsEmail(c.Email) {
		fe[FieldEmail] = "Invalid e-mail"
	}

	switch {
	case len([]rune(c.Password)) < MinPasswordLen:
		fe[FieldPassword] = "Must be at least 6 characters"
	case len(c.Password) > MaxPasswordBytes:
		fe[FieldPassword] = "Must be at most 72 bytes"
	}

	if len(fe) == 0 {
		return nil
	}
	return fe
}

// IsEmail reports whether s is a bare address such as "a@b.com". Display
// names and angle brackets are rejected.
func IsEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}
