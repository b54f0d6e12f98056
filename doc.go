// Package finclient is a Go client for a personal finance REST API
// (accounts, transactions, budgets, categories, investments, dashboard).
// The heavy lifting (credential verification, persistence, derived
// metrics) lives on the server; this package owns the client half of the
// session lifecycle plus typed resource calls on top of it.
//
// Session lifecycle:
//   - TokenStore is the durable slot for the bearer token and its last
//     refresh time. The file-backed implementation survives restarts and
//     degrades to memory-only when the disk is unusable, so callers never
//     see a storage error.
//   - SessionStateMachine centralizes the authenticated/unauthenticated
//     transitions (login, register, verify-on-load, refresh, logout) and
//     serializes every Session mutation. Token writes and in-memory state
//     always move together.
//   - SessionMonitor keeps an active user's token fresh: it ticks once a
//     minute and silently refreshes when the user was recently active and
//     the token is older than the refresh interval. Idle sessions are left
//     to expire naturally.
//   - RouteGuard decides per navigation whether to render protected
//     content, show a pending state, or redirect to login, capturing the
//     attempted path for post-login return.
//
// Activity sinks:
//   - ActivitySink is a best-effort audit emitter used by the state
//     machine and monitor to describe login, refresh, logout, and forced
//     logout events. Sink errors are logged, never propagated.
//
// Any unauthorized (401) response observed by the HTTP gateway collapses
// the session: the token store is cleared, navigation is redirected to the
// login entry point, and the failure surfaces as ErrSessionExpired.
package finclient
