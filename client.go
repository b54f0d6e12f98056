package finclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Client is the sole network egress point. Every request goes through Do,
// which attaches the stored bearer token, and every unauthorized response
// triggers the forced-logout path exactly once for that call, regardless
// of which endpoint produced it.
type Client struct {
	baseURL        string
	http           *http.Client
	store          TokenStore
	logger         Logger
	notifier       Notifier
	navigator      Navigator
	onUnauthorized func()
}

// ClientOption customizes Client construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithClientLogger overrides the logger.
func WithClientLogger(logger Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClientNotifier sets the transient-notification sink used when no
// unauthorized handler is registered.
func WithClientNotifier(n Notifier) ClientOption {
	return func(c *Client) {
		c.notifier = normalizeNotifier(n)
	}
}

// WithClientNavigator sets the redirect target for forced logouts.
func WithClientNavigator(n Navigator) ClientOption {
	return func(c *Client) {
		c.navigator = normalizeNavigator(n)
	}
}

// NewClient returns a gateway for the API at cfg.BaseURL backed by store.
func NewClient(cfg APIConfig, store TokenStore, opts ...ClientOption) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      &http.Client{Timeout: timeout},
		store:     store,
		logger:    defLogger{},
		notifier:  noopNotifier{},
		navigator: noopNavigator{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// OnUnauthorized registers the handler invoked when any response comes back
// unauthorized. The session state machine registers its forced-logout path
// here; without a handler the client falls back to clearing the store,
// notifying, and redirecting itself.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// Do executes one JSON round trip and returns the decoded envelope.
// Network failures (no response at all) surface as ErrNetworkFailure and
// never trigger the forced-logout path.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*APIResponse, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token, _ := c.store.Read(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request %s %s failed: %v", method, path, err)
		return nil, goerrors.Wrap(err, ErrNetworkFailure.Category, ErrNetworkFailure.Message).
			WithTextCode(textCodeNetworkFailure)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerrors.Wrap(err, ErrNetworkFailure.Category, ErrNetworkFailure.Message).
			WithTextCode(textCodeNetworkFailure)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.fireUnauthorized()
		return nil, ErrSessionExpired.Clone().WithMetadata(map[string]any{
			"endpoint": path,
		})
	}

	envelope := &APIResponse{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, envelope); err != nil {
			c.logger.Error("undecodable response from %s (status %d)", path, resp.StatusCode)
			return nil, ErrUnknownFailure.Clone().WithMetadata(map[string]any{
				"endpoint": path,
				"status":   resp.StatusCode,
			})
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && envelope.Success {
		return envelope, nil
	}

	return nil, c.errorFromResponse(path, resp.StatusCode, envelope)
}

// Get issues a GET and decodes the envelope's data into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	env, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decodeData(env, out)
}

// Post issues a POST and decodes the envelope's data into out when out is
// non-nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	env, err := c.Do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return decodeData(env, out)
}

// Put issues a PUT and decodes the envelope's data into out when out is
// non-nil.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	env, err := c.Do(ctx, http.MethodPut, path, body)
	if err != nil {
		return err
	}
	return decodeData(env, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil)
	return err
}

func (c *Client) fireUnauthorized() {
	if c.onUnauthorized != nil {
		c.onUnauthorized()
		return
	}

	c.store.Clear()
	c.notifier.Notify(ErrSessionExpired.Message)
	c.navigator.RedirectToLogin("")
}

func (c *Client) errorFromResponse(path string, status int, envelope *APIResponse) error {
	metadata := map[string]any{
		"endpoint": path,
		"status":   status,
	}
	if len(envelope.Errors) > 0 {
		metadata["fields"] = envelope.Errors
	}

	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		err := ErrValidationFailed.Clone().WithMetadata(metadata)
		if envelope.Message != "" {
			err.Message = envelope.Message
		}
		return err
	default:
		err := ErrUnknownFailure.Clone().WithMetadata(metadata)
		if envelope.Message != "" {
			err.Message = envelope.Message
		}
		return err
	}
}

func decodeData(env *APIResponse, out any) error {
	if out == nil || len(env.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode response data")
	}

	return nil
}
