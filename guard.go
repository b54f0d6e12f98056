package finclient

import (
	"context"
	"sync"
	"time"
)

// GuardDecision is the outcome of a route guard check.
type GuardDecision string

const (
	// DecisionAllow renders the protected content.
	DecisionAllow GuardDecision = "allow"
	// DecisionPending renders a loading indicator; a verification is
	// still resolving.
	DecisionPending GuardDecision = "pending"
	// DecisionRedirect sends the user to the login entry point.
	DecisionRedirect GuardDecision = "redirect"
)

// GuardOption customizes RouteGuard construction.
type GuardOption func(*RouteGuard)

// WithGuardClock injects a custom clock (useful for tests).
func WithGuardClock(clock func() time.Time) GuardOption {
	return func(g *RouteGuard) {
		if clock != nil {
			g.now = clock
		}
	}
}

// WithGuardNotifier sets the transient-notification sink.
func WithGuardNotifier(n Notifier) GuardOption {
	return func(g *RouteGuard) {
		g.notifier = normalizeNotifier(n)
	}
}

// WithGuardNavigator sets the redirect target.
func WithGuardNavigator(n Navigator) GuardOption {
	return func(g *RouteGuard) {
		g.navigator = normalizeNavigator(n)
	}
}

// WithGuardLogger overrides the logger.
func WithGuardLogger(logger Logger) GuardOption {
	return func(g *RouteGuard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// RouteGuard gates protected views. Check runs on every navigation and
// whenever the token value changes; it never renders protected content for
// a token whose embedded expiry is in the past.
type RouteGuard struct {
	auth      *SessionStateMachine
	store     TokenStore
	now       func() time.Time
	logger    Logger
	notifier  Notifier
	navigator Navigator

	mu       sync.Mutex
	inFlight bool
}

// NewRouteGuard returns a guard over the state machine and token store.
func NewRouteGuard(auth *SessionStateMachine, store TokenStore, opts ...GuardOption) *RouteGuard {
	g := &RouteGuard{
		auth:      auth,
		store:     store,
		now:       time.Now,
		logger:    defLogger{},
		notifier:  noopNotifier{},
		navigator: noopNavigator{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Check decides whether the view at attemptedPath may render.
//
//  1. No persisted token: redirect immediately, capturing attemptedPath so
//     login can return the user afterward. No network call.
//  2. Token locally expired: collapse the session, surface a session
//     expired notification, redirect. No network call.
//  3. Otherwise confirm the session against the server. The profile fetch
//     is the sole suspension point; a navigation arriving while one is
//     already resolving gets DecisionPending.
func (g *RouteGuard) Check(ctx context.Context, attemptedPath string) GuardDecision {
	token, _ := g.store.Read()
	if token == "" {
		g.navigator.RedirectToLogin(attemptedPath)
		return DecisionRedirect
	}

	if IsExpiredAt(token, g.now()) {
		g.logger.Info("stored token expired locally, collapsing session")
		g.auth.ExpireSession()
		g.notifier.Notify(ErrSessionExpired.Message)
		g.navigator.RedirectToLogin(attemptedPath)
		return DecisionRedirect
	}

	if g.auth.CurrentState() == StateAuthenticated {
		return DecisionAllow
	}

	g.mu.Lock()
	if g.inFlight {
		g.mu.Unlock()
		return DecisionPending
	}
	g.inFlight = true
	g.mu.Unlock()

	// An unauthorized result during verification redirects through the
	// forced-logout path; hand it the attempted path so the capture
	// survives that route too.
	g.auth.SetRedirect(attemptedPath)

	defer func() {
		g.auth.SetRedirect("")
		g.mu.Lock()
		g.inFlight = false
		g.mu.Unlock()
	}()

	if _, err := g.auth.VerifyOnLoad(ctx); err != nil {
		// Anything other than an unauthorized result redirects here.
		if !IsUnauthorizedError(err) {
			g.navigator.RedirectToLogin(attemptedPath)
		}
		return DecisionRedirect
	}

	return DecisionAllow
}
