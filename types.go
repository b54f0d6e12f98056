package finclient

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenStore is the durable slot for the bearer token and the time it was
// last refreshed. Implementations never return errors: when persistence is
// unavailable they degrade to memory-only behavior.
type TokenStore interface {
	Read() (token string, refreshedAt time.Time)
	Write(token string, refreshedAt time.Time)
	Clear()
}

// Authenticator holds the session operations the guard and monitor drive.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (*Session, error)
	Register(ctx context.Context, reg Registration) error
	VerifyOnLoad(ctx context.Context) (*Session, error)
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	CurrentSession() Session
	CurrentState() SessionState
}

// Navigator receives redirect side effects. The UI shell implements it;
// RedirectToLogin carries the path the user was trying to reach so the
// login flow can return there afterward.
type Navigator interface {
	RedirectToLogin(attemptedPath string)
}

// NavigatorFunc adapts a function into a Navigator.
type NavigatorFunc func(attemptedPath string)

func (f NavigatorFunc) RedirectToLogin(attemptedPath string) {
	if f != nil {
		f(attemptedPath)
	}
}

// Notifier surfaces transient user-visible messages (expired session,
// failed save). Implementations must not block.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) {
	if f != nil {
		f(message)
	}
}

type noopNavigator struct{}

func (noopNavigator) RedirectToLogin(string) {}

type noopNotifier struct{}

func (noopNotifier) Notify(string) {}

func normalizeNavigator(n Navigator) Navigator {
	if n == nil {
		return noopNavigator{}
	}
	return n
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] FINCLIENT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] FINCLIENT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] FINCLIENT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] FINCLIENT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
