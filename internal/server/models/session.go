package models

import "time"

// Session is a database-backed login session addressed by its opaque token.
type Session struct {
	ID           string
	SessionToken string
	UserID       string
	Expires      time.Time
}

// SessionUpdate carries a partial session update. Nil fields are kept.
type SessionUpdate struct {
	Expires *time.Time
	UserID  *string
}
