package finclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// The client never holds key material, so tokens are decoded without
// signature verification; the server remains the authority on validity.
// Only the registered expiry claim is consulted here.

// TokenExpiry decodes the expiry claim embedded in a compact signed token.
// A token without an expiry claim returns the zero time and no error.
func TokenExpiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(textCodeTokenMalformed)
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}

	return claims.ExpiresAt.Time, nil
}

// IsExpired reports whether the token's embedded expiry claim is in the
// past. Undecodable tokens count as expired so they collapse to the same
// redirect-to-login path.
func IsExpired(token string) bool {
	return IsExpiredAt(token, time.Now())
}

// IsExpiredAt is IsExpired against an explicit clock.
func IsExpiredAt(token string, now time.Time) bool {
	exp, err := TokenExpiry(token)
	if err != nil {
		return true
	}

	if exp.IsZero() {
		return false
	}

	return exp.Before(now)
}
