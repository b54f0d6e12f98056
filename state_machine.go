package finclient

import (
	"context"
	"net/http"
	"sync"
	"time"
)

var _ Authenticator = &SessionStateMachine{}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*SessionStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *SessionStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineLogger overrides the logger.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *SessionStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish
// session lifecycle events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *SessionStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineNotifier sets the transient-notification sink.
func WithStateMachineNotifier(n Notifier) StateMachineOption {
	return func(sm *SessionStateMachine) {
		sm.notifier = normalizeNotifier(n)
	}
}

// WithStateMachineNavigator sets the redirect target for logouts.
func WithStateMachineNavigator(n Navigator) StateMachineOption {
	return func(sm *SessionStateMachine) {
		sm.navigator = normalizeNavigator(n)
	}
}

// SessionStateMachine owns the Session and serializes every mutation of it
// behind one mutex, so two concurrently resolving operations apply their
// results in resolution order and never interleave partial writes. Durable
// token writes always happen inside the same critical section as the
// in-memory update they belong to.
type SessionStateMachine struct {
	client       *Client
	store        TokenStore
	transitions  map[SessionState]map[SessionState]struct{}
	now          func() time.Time
	logger       Logger
	activitySink ActivitySink
	notifier     Notifier
	navigator    Navigator

	mu            sync.Mutex
	state         SessionState
	session       Session
	endHooks      []func()
	loginRedirect string
}

// NewSessionStateMachine derives the boot state synchronously from the
// token store: Verifying when a token is persisted, Unauthenticated
// otherwise. It also registers itself as the client's unauthorized handler
// so any 401 collapses the session globally.
func NewSessionStateMachine(client *Client, store TokenStore, opts ...StateMachineOption) *SessionStateMachine {
	sm := &SessionStateMachine{
		client: client,
		store:  store,
		transitions: map[SessionState]map[SessionState]struct{}{
			StateUnauthenticated: {
				StateVerifying:     {},
				StateAuthenticated: {},
			},
			StateVerifying: {
				StateAuthenticated:   {},
				StateUnauthenticated: {},
			},
			StateAuthenticated: {
				StateProfilePending:  {},
				StateUnauthenticated: {},
			},
			StateProfilePending: {
				StateAuthenticated:   {},
				StateUnauthenticated: {},
			},
		},
		now:          time.Now,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		notifier:     noopNotifier{},
		navigator:    noopNavigator{},
		state:        StateUnauthenticated,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	if token, refreshedAt := store.Read(); token != "" {
		sm.state = StateVerifying
		sm.session = Session{Token: token, LastRefreshAt: refreshedAt}
	}

	if client != nil {
		client.OnUnauthorized(sm.ForceLogout)
	}

	return sm
}

// OnSessionEnd registers a hook executed after any transition to
// Unauthenticated (logout or forced logout). The session monitor registers
// its Stop here.
func (sm *SessionStateMachine) OnSessionEnd(fn func()) {
	if fn == nil {
		return
	}
	sm.mu.Lock()
	sm.endHooks = append(sm.endHooks, fn)
	sm.mu.Unlock()
}

// SetRedirect records the path a gated navigation was trying to reach, so a
// forced logout triggered while it resolves sends the user to login with
// that path captured for the post-login return. The slot is consumed by the
// next forced logout and cleared by the guard once its check resolves.
func (sm *SessionStateMachine) SetRedirect(path string) {
	sm.mu.Lock()
	sm.loginRedirect = path
	sm.mu.Unlock()
}

// CurrentState returns the lifecycle state.
func (sm *SessionStateMachine) CurrentState() SessionState {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state
}

// CurrentSession returns a copy of the session.
func (sm *SessionStateMachine) CurrentSession() Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.session
}

// Login exchanges credentials for a bearer token. Payload validation runs
// before any network call; a rejected credential surfaces as
// ErrInvalidCredentials and the state remains Unauthenticated.
func (sm *SessionStateMachine) Login(ctx context.Context, creds Credentials) (*Session, error) {
	if err := creds.Validate(); err != nil {
		return nil, validationError(err)
	}

	env, err := sm.client.Do(ctx, http.MethodPost, "/login", creds)
	if err != nil {
		sm.emit(ctx, ActivityEventLoginFailure, "", map[string]any{
			"email": creds.Email,
			"error": err.Error(),
		})
		if IsUnauthorizedError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if env.AccessToken == "" {
		sm.logger.Error("login response carried no access token")
		return nil, ErrUnknownFailure
	}

	user, err := decodeUser(env)
	if err != nil {
		sm.logger.Warn("login response user payload undecodable: %v", err)
	}

	now := sm.now()

	sm.mu.Lock()
	if err := sm.transitionLocked(StateAuthenticated); err != nil {
		sm.mu.Unlock()
		return nil, err
	}
	sm.store.Write(env.AccessToken, now)
	sm.session = Session{
		Token:           env.AccessToken,
		IsAuthenticated: true,
		User:            user,
		LastRefreshAt:   now,
	}
	session := sm.session
	sm.mu.Unlock()

	sm.emit(ctx, ActivityEventLoginSuccess, userID(user), map[string]any{
		"email": creds.Email,
	})

	return &session, nil
}

// Register creates an account. Registration never auto-authenticates; the
// user logs in afterward. Confirmation mismatches fail locally, before any
// network call.
func (sm *SessionStateMachine) Register(ctx context.Context, reg Registration) error {
	if err := reg.Validate(); err != nil {
		return validationError(err)
	}

	if _, err := sm.client.Do(ctx, http.MethodPost, "/register", reg); err != nil {
		return err
	}

	sm.emit(ctx, ActivityEventRegistered, "", map[string]any{
		"email": reg.Email,
	})

	return nil
}

// VerifyOnLoad confirms a persisted token against the server by fetching
// the current profile. On success the session becomes Authenticated; on any
// failure the token is cleared and the session collapses.
func (sm *SessionStateMachine) VerifyOnLoad(ctx context.Context) (*Session, error) {
	sm.mu.Lock()
	token, refreshedAt := sm.store.Read()
	if token == "" {
		sm.collapseLocked()
		sm.mu.Unlock()
		return nil, ErrSessionExpired
	}

	if sm.state == StateUnauthenticated {
		if err := sm.transitionLocked(StateVerifying); err != nil {
			sm.mu.Unlock()
			return nil, err
		}
	}
	sm.session.Token = token
	sm.session.LastRefreshAt = refreshedAt
	sm.mu.Unlock()

	user := &UserProfile{}
	err := sm.client.Get(ctx, "/me", user)

	sm.mu.Lock()
	if err != nil {
		// A 401 already collapsed the session through the interceptor;
		// anything else collapses it here, quietly.
		if !IsUnauthorizedError(err) {
			sm.collapseLocked()
		}
		sm.mu.Unlock()
		return nil, err
	}

	// The token may have been cleared while the fetch was in flight.
	if current, _ := sm.store.Read(); current == "" {
		sm.collapseLocked()
		sm.mu.Unlock()
		return nil, ErrSessionExpired
	}

	if err := sm.transitionLocked(StateAuthenticated); err != nil {
		sm.mu.Unlock()
		return nil, err
	}
	sm.session.IsAuthenticated = true
	sm.session.User = user
	session := sm.session
	sm.mu.Unlock()

	sm.emit(ctx, ActivityEventVerified, userID(user), nil)

	return &session, nil
}

// FetchProfile re-fetches the current user while authenticated, replacing
// the cached profile wholesale.
func (sm *SessionStateMachine) FetchProfile(ctx context.Context) (*UserProfile, error) {
	sm.mu.Lock()
	if err := sm.transitionLocked(StateProfilePending); err != nil {
		sm.mu.Unlock()
		return nil, err
	}
	sm.mu.Unlock()

	user := &UserProfile{}
	err := sm.client.Get(ctx, "/me", user)

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if err != nil {
		if !IsUnauthorizedError(err) {
			// Keep the session; the stale profile stays until a fetch
			// succeeds or the session collapses.
			if terr := sm.transitionLocked(StateAuthenticated); terr != nil {
				return nil, terr
			}
		}
		return nil, err
	}

	if err := sm.transitionLocked(StateAuthenticated); err != nil {
		return nil, err
	}
	sm.session.User = user

	return user, nil
}

// Refresh rotates the bearer token through the refresh endpoint. The store
// write and the in-memory update land in the same critical section so they
// are never observed apart.
func (sm *SessionStateMachine) Refresh(ctx context.Context) error {
	env, err := sm.client.Do(ctx, http.MethodPost, "/refresh", nil)
	if err != nil {
		sm.emit(ctx, ActivityEventRefreshFailure, "", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	if env.AccessToken == "" {
		sm.logger.Error("refresh response carried no access token")
		return ErrUnknownFailure
	}

	now := sm.now()

	sm.mu.Lock()
	// A logout that raced the refresh wins; do not resurrect the session.
	if current, _ := sm.store.Read(); current == "" {
		sm.mu.Unlock()
		return ErrSessionExpired
	}
	sm.store.Write(env.AccessToken, now)
	sm.session.Token = env.AccessToken
	sm.session.LastRefreshAt = now
	sm.mu.Unlock()

	sm.emit(ctx, ActivityEventRefreshSuccess, "", nil)

	return nil
}

// UpdatePassword changes the account password. Confirmation mismatches are
// rejected locally.
func (sm *SessionStateMachine) UpdatePassword(ctx context.Context, change PasswordChange) error {
	if err := change.Validate(); err != nil {
		return validationError(err)
	}

	if err := sm.client.Put(ctx, "/update-password", change, nil); err != nil {
		return err
	}

	sm.emit(ctx, ActivityEventPasswordChanged, "", nil)

	return nil
}

// Logout invalidates the session server-side and collapses local state
// unconditionally, even when the server call fails: the user is never left
// authenticated client-side after requesting logout.
func (sm *SessionStateMachine) Logout(ctx context.Context) error {
	if _, err := sm.client.Do(ctx, http.MethodPost, "/logout", nil); err != nil {
		sm.logger.Warn("server-side logout failed: %v", err)
	}

	sm.mu.Lock()
	uid := userID(sm.session.User)
	sm.collapseLocked()
	hooks := append([]func(){}, sm.endHooks...)
	sm.mu.Unlock()

	runHooks(hooks)
	sm.emit(ctx, ActivityEventLogout, uid, nil)

	return nil
}

// ForceLogout collapses the session in response to an unauthorized
// response or a locally detected expired token. It clears the store and
// the cached profile together, notifies the user once, and redirects to
// the login entry point carrying any redirect path captured via SetRedirect.
func (sm *SessionStateMachine) ForceLogout() {
	sm.mu.Lock()
	uid := userID(sm.session.User)
	redirect := sm.loginRedirect
	sm.loginRedirect = ""
	sm.collapseLocked()
	hooks := append([]func(){}, sm.endHooks...)
	sm.mu.Unlock()

	runHooks(hooks)

	sm.notifier.Notify(ErrSessionExpired.Message)
	sm.navigator.RedirectToLogin(redirect)

	sm.emit(context.Background(), ActivityEventForcedLogout, uid, nil)
}

// ExpireSession collapses the session after a locally detected expiry,
// without any network call. Notification and redirect stay with the
// caller, which knows the attempted path.
func (sm *SessionStateMachine) ExpireSession() {
	sm.mu.Lock()
	uid := userID(sm.session.User)
	sm.collapseLocked()
	hooks := append([]func(){}, sm.endHooks...)
	sm.mu.Unlock()

	runHooks(hooks)
	sm.emit(context.Background(), ActivityEventSessionExpired, uid, nil)
}

// collapseLocked resets durable and in-memory state together. Callers hold mu.
func (sm *SessionStateMachine) collapseLocked() {
	sm.store.Clear()
	sm.session = Session{}
	sm.state = StateUnauthenticated
}

func (sm *SessionStateMachine) transitionLocked(target SessionState) error {
	if sm.state == target {
		return nil
	}

	if allowed, ok := sm.transitions[sm.state]; ok {
		if _, exists := allowed[target]; exists {
			sm.state = target
			return nil
		}
	}

	return ErrInvalidTransition.Clone().WithMetadata(map[string]any{
		"from": string(sm.state),
		"to":   string(target),
	})
}

func (sm *SessionStateMachine) emit(ctx context.Context, eventType ActivityEventType, uid string, metadata map[string]any) {
	sm.mu.Lock()
	from := sm.state
	sm.mu.Unlock()

	event := ActivityEvent{
		EventType:  eventType,
		UserID:     uid,
		FromState:  from,
		ToState:    from,
		Metadata:   metadata,
		OccurredAt: sm.now(),
	}

	sink := normalizeActivitySink(sm.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		sm.logger.Warn("activity sink record error: %v", err)
	}
}

func runHooks(hooks []func()) {
	for _, hook := range hooks {
		if hook != nil {
			hook()
		}
	}
}

func validationError(err error) error {
	rich := ErrValidationFailed.Clone()
	rich.Message = err.Error()
	rich.Source = err
	return rich
}

func decodeUser(env *APIResponse) (*UserProfile, error) {
	if len(env.Data) == 0 {
		return nil, nil
	}

	wrapped := &loginData{}
	if err := decodeData(env, wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}

	user := &UserProfile{}
	if err := decodeData(env, user); err != nil {
		return nil, err
	}
	if user.Email == "" && user.Name == "" {
		return nil, nil
	}

	return user, nil
}

func userID(user *UserProfile) string {
	if user == nil {
		return ""
	}
	return user.ID.String()
}
