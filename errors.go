package finclient

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidCredentials = "INVALID_CREDENTIALS"
	textCodeSessionExpired     = "SESSION_EXPIRED"
	textCodeValidationFailed   = "VALIDATION_FAILED"
	textCodeNetworkFailure     = "NETWORK_FAILURE"
	textCodeUnknownFailure     = "UNKNOWN_FAILURE"
	textCodeTokenExpired       = "TOKEN_EXPIRED"
	textCodeTokenMalformed     = "TOKEN_MALFORMED"
	textCodeInvalidTransition  = "INVALID_SESSION_TRANSITION"
)

// ErrInvalidCredentials is returned when the server rejects a login attempt.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionExpired is returned whenever an authenticated call comes back
// unauthorized; it is always handled globally (clear store, redirect).
var ErrSessionExpired = goerrors.New("your session has expired, please log in again", goerrors.CategoryAuth).
	WithTextCode(textCodeSessionExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrValidationFailed covers local and server-side field validation.
var ErrValidationFailed = goerrors.New("validation failed", goerrors.CategoryValidation).
	WithTextCode(textCodeValidationFailed).
	WithCode(goerrors.CodeBadRequest)

// ErrNetworkFailure is returned when a request produced no response at all.
// It is never treated as an authorization failure.
var ErrNetworkFailure = goerrors.New("could not reach the server", goerrors.CategoryOperation).
	WithTextCode(textCodeNetworkFailure)

// ErrUnknownFailure is the catch-all for unexpected server behavior.
var ErrUnknownFailure = goerrors.New("something went wrong", goerrors.CategoryInternal).
	WithTextCode(textCodeUnknownFailure)

// ErrTokenExpired is returned by the local expiry check.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when a stored token cannot be decoded.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidTransition is returned when a requested session state change is
// not allowed by the transition table.
var ErrInvalidTransition = goerrors.New("invalid session state transition", goerrors.CategoryConflict).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeConflict)

// IsUnauthorizedError reports whether err represents an expired or rejected
// credential, from either the interceptor or the local expiry check.
// Classification goes through the text code so clones and wraps of the
// package errors classify the same as the originals.
func IsUnauthorizedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.TextCode {
		case textCodeInvalidCredentials, textCodeSessionExpired, textCodeTokenExpired, textCodeTokenMalformed:
			return true
		}
		return richErr.Code == goerrors.CodeUnauthorized
	}

	return strings.Contains(err.Error(), "unauthorized")
}

// IsNetworkError reports whether err means the server produced no response.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == textCodeNetworkFailure
	}

	return false
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == textCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for undecodable tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == textCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed")
}

// DisplayMessage maps any error from this package to a user-displayable
// string. Unrecognized errors collapse to the unknown-failure message so no
// raw internals leak into the UI.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.TextCode {
		case textCodeInvalidCredentials:
			return ErrInvalidCredentials.Message
		case textCodeSessionExpired, textCodeTokenExpired, textCodeTokenMalformed:
			return ErrSessionExpired.Message
		case textCodeValidationFailed:
			if richErr.Message != "" {
				return richErr.Message
			}
			return ErrValidationFailed.Message
		case textCodeNetworkFailure:
			return ErrNetworkFailure.Message
		}
	}

	return ErrUnknownFailure.Message
}
