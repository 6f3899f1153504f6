// Package auth implements the in-process authentication layer: password
// hashing, CSRF tokens and the session manager that drives the storage
// adapter through sign-in, session resolution and sign-out.
package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/devtv/devtv/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const (
	csrfSubject = "csrf"

	// CSRFNonceSize is the number of random bytes in a browser nonce.
	CSRFNonceSize = 16
)

// CSRFClaims are the claims of a CSRF token. Nonce ties the token to the
// browser holding the matching nonce cookie.
type CSRFClaims struct {
	jwt.RegisteredClaims
	Nonce string `json:"nonce"`
}

// NewCSRFNonce returns a fresh hex encoded browser nonce.
func NewCSRFNonce() (string, error) {
	return common.MakeRandHexString(CSRFNonceSize)
}

// GenerateCSRFToken issues an HS256-signed CSRF token bound to nonce and
// valid for validity.
func GenerateCSRFToken(secretKey []byte, nonce string, validity time.Duration) (string, error) {
	if nonce == "" {
		return "", common.ErrInvalidToken
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, CSRFClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   csrfSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Nonce: nonce,
	})

	return token.SignedString(secretKey)
}

// ValidateCSRFToken checks signature, algorithm, subject and expiry, and
// that the token was issued for nonce. Expired tokens yield
// common.ErrTokenExpired, anything else invalid yields common.ErrInvalidToken.
func ValidateCSRFToken(tokenString, nonce string, secretKey []byte) error {
	claims := &CSRFClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return common.ErrTokenExpired
		}
		return common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject != csrfSubject {
		return common.ErrInvalidToken
	}
	if nonce == "" || subtle.ConstantTimeCompare([]byte(claims.Nonce), []byte(nonce)) != 1 {
		return common.ErrInvalidToken
	}

	return nil
}
