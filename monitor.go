package finclient

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultCheckInterval bounds the staleness of the activity signal.
	DefaultCheckInterval = 60 * time.Second
	// DefaultRefreshInterval is the minimum token age before a silent
	// refresh is attempted.
	DefaultRefreshInterval = 5 * time.Minute
)

// MonitorOption customizes SessionMonitor construction.
type MonitorOption func(*SessionMonitor)

// WithMonitorClock injects a custom clock (useful for tests).
func WithMonitorClock(clock func() time.Time) MonitorOption {
	return func(m *SessionMonitor) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithMonitorLogger overrides the logger.
func WithMonitorLogger(logger Logger) MonitorOption {
	return func(m *SessionMonitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// SessionMonitor keeps an active user's token fresh without explicit user
// action. Callers feed interaction events through RecordActivity; every
// check interval the monitor refreshes the token when the user was active
// within the last window and the stored token is older than the refresh
// interval. Idle sessions are left to expire naturally.
//
// The monitor is owned by the application shell: construct it once, Start
// it after authentication, and it stops itself when the session ends.
type SessionMonitor struct {
	auth            *SessionStateMachine
	store           TokenStore
	checkInterval   time.Duration
	refreshInterval time.Duration
	now             func() time.Time
	logger          Logger

	mu           sync.Mutex
	lastActivity time.Time
	running      bool
	inFlight     bool
	done         chan struct{}
}

// NewSessionMonitor wires a monitor to the state machine and store. It
// registers Stop as a session-end hook so logout (voluntary or forced)
// always tears the monitor down.
func NewSessionMonitor(auth *SessionStateMachine, store TokenStore, cfg SessionConfig, opts ...MonitorOption) *SessionMonitor {
	checkInterval := cfg.CheckInterval
	if checkInterval <= 0 {
		checkInterval = DefaultCheckInterval
	}

	refreshInterval := cfg.RefreshInterval
	if refreshInterval <= 0 {
		refreshInterval = DefaultRefreshInterval
	}

	m := &SessionMonitor{
		auth:            auth,
		store:           store,
		checkInterval:   checkInterval,
		refreshInterval: refreshInterval,
		now:             time.Now,
		logger:          defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	if auth != nil {
		auth.OnSessionEnd(m.Stop)
	}

	return m
}

// Start begins the periodic check loop. Calling Start while already
// running is a no-op. The activity timestamp is primed to now so the first
// window counts as active.
func (m *SessionMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	m.running = true
	m.lastActivity = m.now()
	m.done = make(chan struct{})

	go m.run(m.done)
}

// Stop cancels the periodic check. It is idempotent and safe to call when
// the monitor never started.
func (m *SessionMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	m.running = false
	close(m.done)
	m.done = nil
}

// Running reports whether the check loop is active.
func (m *SessionMonitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// RecordActivity marks a meaningful user interaction (click, keypress,
// form submit, touch). The UI shell wires its input events here.
func (m *SessionMonitor) RecordActivity() {
	m.mu.Lock()
	m.lastActivity = m.now()
	m.mu.Unlock()
}

func (m *SessionMonitor) run(done chan struct{}) {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.check()
		}
	}
}

// check runs once per tick. At most one refresh is in flight at a time; a
// tick that lands while a refresh is still outstanding does nothing.
func (m *SessionMonitor) check() {
	m.mu.Lock()
	if !m.running || m.inFlight {
		m.mu.Unlock()
		return
	}

	now := m.now()
	if now.Sub(m.lastActivity) >= m.checkInterval {
		// User idle for a full window; let the session age out.
		m.mu.Unlock()
		return
	}

	token, refreshedAt := m.store.Read()
	if token == "" {
		m.mu.Unlock()
		return
	}

	if now.Sub(refreshedAt) <= m.refreshInterval {
		m.mu.Unlock()
		return
	}

	m.inFlight = true
	m.mu.Unlock()

	go m.refresh()
}

func (m *SessionMonitor) refresh() {
	defer func() {
		m.mu.Lock()
		m.inFlight = false
		m.mu.Unlock()
	}()

	err := m.auth.Refresh(context.Background())
	if err == nil {
		return
	}

	if IsUnauthorizedError(err) {
		// The gateway's interceptor already collapsed the session and,
		// through the session-end hook, stopped this monitor.
		m.logger.Info("silent refresh rejected, session collapsed")
		return
	}

	// Transient failure: log and let the next eligible tick retry.
	m.logger.Warn("silent refresh failed: %v", err)
}
