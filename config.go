package finclient

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds client configuration
type Config struct {
	API     APIConfig
	Session SessionConfig
}

type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

type SessionConfig struct {
	// TokenFile is where the bearer token slot is persisted.
	TokenFile string
	// RefreshInterval is the minimum token age before a silent refresh.
	RefreshInterval time.Duration
	// CheckInterval is the activity monitor's tick cadence.
	CheckInterval time.Duration
}

// LoadConfig loads configuration from environment variables and a .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("FINCLIENT_API_BASE_URL", "http://localhost:8000/api")
	viper.SetDefault("FINCLIENT_REQUEST_TIMEOUT", 30)
	viper.SetDefault("FINCLIENT_REFRESH_INTERVAL", 300)
	viper.SetDefault("FINCLIENT_CHECK_INTERVAL", 60)
	viper.SetDefault("FINCLIENT_TOKEN_FILE", defaultTokenFile())

	cfg := &Config{
		API: APIConfig{
			BaseURL:        viper.GetString("FINCLIENT_API_BASE_URL"),
			RequestTimeout: time.Duration(viper.GetInt("FINCLIENT_REQUEST_TIMEOUT")) * time.Second,
		},
		Session: SessionConfig{
			TokenFile:       viper.GetString("FINCLIENT_TOKEN_FILE"),
			RefreshInterval: time.Duration(viper.GetInt("FINCLIENT_REFRESH_INTERVAL")) * time.Second,
			CheckInterval:   time.Duration(viper.GetInt("FINCLIENT_CHECK_INTERVAL")) * time.Second,
		},
	}

	return cfg, nil
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "finclient", "token.json")
}
