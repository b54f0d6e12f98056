package finclient

import (
	"fmt"
	"time"
)

// SessionState enumerates the auth lifecycle states.
type SessionState string

const (
	// StateUnauthenticated means no usable credential is held.
	StateUnauthenticated SessionState = "unauthenticated"
	// StateVerifying means a persisted token was found at boot and is
	// being confirmed against the server. Render-gating treats it as
	// not-yet-authenticated.
	StateVerifying SessionState = "verifying"
	// StateAuthenticated means the session is confirmed.
	StateAuthenticated SessionState = "authenticated"
	// StateProfilePending means the session is authenticated but the
	// profile fetch is still outstanding.
	StateProfilePending SessionState = "authenticated_profile_pending"
)

// Session is the in-memory authentication state. It is owned exclusively by
// the SessionStateMachine; the TokenStore is its durable mirror.
//
// Invariant: IsAuthenticated implies Token != "".
type Session struct {
	Token           string       `json:"-"`
	IsAuthenticated bool         `json:"is_authenticated"`
	User            *UserProfile `json:"user,omitempty"`
	LastRefreshAt   time.Time    `json:"last_refresh_at,omitempty"`
}

func (s Session) String() string {
	user := "<nil>"
	if s.User != nil {
		user = s.User.Email
	}
	return fmt.Sprintf(
		"authenticated=%t user=%s last_refresh=%s",
		s.IsAuthenticated,
		user,
		s.LastRefreshAt.Format(time.RFC1123),
	)
}
