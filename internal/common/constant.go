package common

const (
	// SessionCookieName is the cookie carrying the opaque session token.
	SessionCookieName = "devtv.session-token"

	// CSRFCookieName is the cookie carrying the browser nonce that CSRF
	// tokens are bound to.
	CSRFCookieName = "devtv.csrf-nonce"

	// SessionTokenSize is the number of random bytes behind a session token.
	// The hex-encoded token is twice as long.
	SessionTokenSize = 32
)
