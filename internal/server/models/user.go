// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a devtv account holder. Email is empty for users created through
// an OAuth provider that did not share one; it is stored as NULL so the
// unique index only covers real addresses.
type User struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"-"`
	EmailVerified  *time.Time `json:"emailVerified"`
	Image          string     `json:"image"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// UserUpdate carries a partial update. Nil fields are left as they are.
type UserUpdate struct {
	Name          *string
	Email         *string
	EmailVerified *time.Time
	Image         *string
}
