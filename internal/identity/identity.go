// Package identity holds the user and session views exchanged between the
// server's auth layer and its clients, in their JSON wire form.
package identity

import "time"

// User is the normalized user view.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	EmailVerified *time.Time `json:"emailVerified"`
	Image         string     `json:"image"`
}

// Session is the (token, user, expiry) triple.
type Session struct {
	SessionToken string    `json:"sessionToken"`
	UserID       string    `json:"userId"`
	Expires      time.Time `json:"expires"`
}

// SessionAndUser pairs a session with its owner.
type SessionAndUser struct {
	Session Session `json:"session"`
	User    User    `json:"user"`
}
