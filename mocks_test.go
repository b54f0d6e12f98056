package finclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"

	finclient "github.com/vandyand/go-finance-client"
)

// MockActivitySink implements finclient.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event finclient.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// recordingNavigator captures redirect side effects.
type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) RedirectToLogin(attemptedPath string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, attemptedPath)
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string{}, n.paths...)
}

// recordingNotifier captures transient notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string{}, n.messages...)
}

// fakeClock is a settable clock for components taking clock options.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// silentLogger drops all output to keep test logs readable.
type silentLogger struct{}

func (silentLogger) Debug(string, ...any) {}
func (silentLogger) Info(string, ...any)  {}
func (silentLogger) Warn(string, ...any)  {}
func (silentLogger) Error(string, ...any) {}

// signedToken crafts a compact HS256 token with the given expiry. The
// client never verifies signatures, so the key is irrelevant.
func signedToken(exp time.Time) string {
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-signing-key"))
	if err != nil {
		panic(err)
	}
	return signed
}

// tokenWithoutExpiry crafts a compact token carrying no exp claim.
func tokenWithoutExpiry() string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-1",
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	if err != nil {
		panic(err)
	}
	return signed
}

// countingHandler wraps an http.Handler and counts requests per path.
type countingHandler struct {
	mu      sync.Mutex
	counts  map[string]int
	handler http.Handler
}

func newCountingHandler(handler http.Handler) *countingHandler {
	return &countingHandler{
		counts:  map[string]int{},
		handler: handler,
	}
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.counts[r.URL.Path]++
	h.mu.Unlock()
	h.handler.ServeHTTP(w, r)
}

func (h *countingHandler) Count(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[path]
}

func (h *countingHandler) Total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	total := 0
	for _, n := range h.counts {
		total += n
	}
	return total
}

func newTestClient(server *httptest.Server, store finclient.TokenStore, opts ...finclient.ClientOption) *finclient.Client {
	opts = append([]finclient.ClientOption{
		finclient.WithClientLogger(silentLogger{}),
	}, opts...)
	return finclient.NewClient(finclient.APIConfig{BaseURL: server.URL}, store, opts...)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
