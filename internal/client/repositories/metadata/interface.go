// Package metadata is a key/value table in the CLI's local database. The
// CLI keeps the session token and the signed-in email there.
package metadata

import (
	"context"
)

// Keys used by the CLI.
const (
	KeySessionToken = "session_token"
	KeyEmail        = "email"
)

// Repository reads and writes metadata values.
type Repository interface {
	// Get returns nil, nil for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the given keys; missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}
