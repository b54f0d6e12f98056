package finclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	finclient "github.com/vandyand/go-finance-client"
)

func TestClientAttachesBearerToken(t *testing.T) {
	var seen atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `{"success":true,"data":{}}`)
	}))
	defer server.Close()

	store := finclient.NewMemoryTokenStore()
	store.Write("tok-123", time.Now())

	client := newTestClient(server, store)
	_, err := client.Do(context.Background(), http.MethodGet, "/me", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", seen.Load())
}

func TestClientOmitsHeaderWithoutToken(t *testing.T) {
	var seen atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `{"success":true}`)
	}))
	defer server.Close()

	client := newTestClient(server, finclient.NewMemoryTokenStore())
	_, err := client.Do(context.Background(), http.MethodPost, "/login", map[string]string{"email": "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "", seen.Load())
}

func TestClientUnauthorizedFiresHandlerExactlyOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"success":false,"message":"Unauthenticated."}`)
	}))
	defer server.Close()

	store := finclient.NewMemoryTokenStore()
	store.Write("stale", time.Now())

	var fired int32
	client := newTestClient(server, store)
	client.OnUnauthorized(func() {
		atomic.AddInt32(&fired, 1)
	})

	_, err := client.Do(context.Background(), http.MethodGet, "/accounts", nil)
	require.Error(t, err)
	assert.True(t, finclient.IsUnauthorizedError(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestClientUnauthorizedDefaultCollapse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"success":false}`)
	}))
	defer server.Close()

	store := finclient.NewMemoryTokenStore()
	store.Write("stale", time.Now())

	navigator := &recordingNavigator{}
	notifier := &recordingNotifier{}

	client := newTestClient(server, store,
		finclient.WithClientNavigator(navigator),
		finclient.WithClientNotifier(notifier),
	)

	_, err := client.Do(context.Background(), http.MethodGet, "/budgets", nil)
	require.Error(t, err)

	token, _ := store.Read()
	assert.Empty(t, token)
	assert.Len(t, navigator.Paths(), 1)
	assert.Len(t, notifier.Messages(), 1)
}

func TestClientNetworkFailureIsNotUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens anymore

	store := finclient.NewMemoryTokenStore()
	store.Write("tok", time.Now())

	var fired int32
	client := newTestClient(server, store)
	client.OnUnauthorized(func() {
		atomic.AddInt32(&fired, 1)
	})

	_, err := client.Do(context.Background(), http.MethodGet, "/me", nil)
	require.Error(t, err)
	assert.True(t, finclient.IsNetworkError(err))
	assert.False(t, finclient.IsUnauthorizedError(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))

	// The token survives a network blip.
	token, _ := store.Read()
	assert.Equal(t, "tok", token)
}

func TestClientValidationErrorsPassThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity,
			`{"success":false,"message":"The email field is required.","errors":{"email":["required"]}}`)
	}))
	defer server.Close()

	client := newTestClient(server, finclient.NewMemoryTokenStore())
	_, err := client.Do(context.Background(), http.MethodPost, "/register", map[string]string{})
	require.Error(t, err)
	assert.Equal(t, "The email field is required.", finclient.DisplayMessage(err))
}

func TestClientServerErrorIsUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"success":false,"message":"boom"}`)
	}))
	defer server.Close()

	client := newTestClient(server, finclient.NewMemoryTokenStore())
	_, err := client.Do(context.Background(), http.MethodGet, "/dashboard", nil)
	require.Error(t, err)
	assert.False(t, finclient.IsUnauthorizedError(err))
	assert.False(t, finclient.IsNetworkError(err))
}
