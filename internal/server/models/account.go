package models

import "time"

// Account links a User to an identity at an external provider. The pair
// (Provider, ProviderAccountID) is unique.
type Account struct {
	ID                string
	UserID            string
	Type              string
	Provider          string
	ProviderAccountID string

	// Token material handed over by the provider, stored verbatim.
	RefreshToken *string
	AccessToken  *string
	ExpiresAt    *int64
	TokenType    *string
	Scope        *string
	IDToken      *string
	SessionState *string

	CreatedAt time.Time
}
