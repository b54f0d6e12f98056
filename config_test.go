package finclient_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	finclient "github.com/vandyand/go-finance-client"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := finclient.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.RequestTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Session.RefreshInterval)
	assert.Equal(t, time.Minute, cfg.Session.CheckInterval)
	assert.NotEmpty(t, cfg.Session.TokenFile)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("FINCLIENT_API_BASE_URL", "https://finance.example.com/api")
	t.Setenv("FINCLIENT_REQUEST_TIMEOUT", "10")
	t.Setenv("FINCLIENT_REFRESH_INTERVAL", "120")
	t.Setenv("FINCLIENT_CHECK_INTERVAL", "15")
	t.Setenv("FINCLIENT_TOKEN_FILE", "/tmp/finclient-test/token.json")

	cfg, err := finclient.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://finance.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.RequestTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Session.RefreshInterval)
	assert.Equal(t, 15*time.Second, cfg.Session.CheckInterval)
	assert.Equal(t, "/tmp/finclient-test/token.json", cfg.Session.TokenFile)
}
