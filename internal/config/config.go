// Package config loads client configuration from environment and .env.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds client configuration (env + Viper).
type Config struct {
	APIBaseURL   string        // backend origin, e.g. https://api.carsawa.africa/api
	StateDir     string        // where creds, thumbnails and the inventory cache live
	HTTPTimeout  time.Duration // per-request timeout for the gateway
	PollInterval time.Duration // notification poll interval
}

// DefaultBaseURL is the production backend origin.
const DefaultBaseURL = "https://api.carsawa.africa/api"

// Load loads config from env and an optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	base := viper.GetString("CARSAWA_API_URL")
	if base == "" {
		base = DefaultBaseURL
	}

	stateDir := viper.GetString("CARSAWA_STATE_DIR")
	if stateDir == "" {
		stateDir = defaultStateDir()
	}

	timeout := viper.GetDuration("CARSAWA_HTTP_TIMEOUT")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	poll := viper.GetDuration("CARSAWA_POLL_INTERVAL")
	if poll <= 0 {
		poll = time.Minute
	}

	return &Config{
		APIBaseURL:   strings.TrimRight(base, "/"),
		StateDir:     stateDir,
		HTTPTimeout:  timeout,
		PollInterval: poll,
	}, nil
}

func defaultStateDir() string {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return filepath.Join(v, "carsawa")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "carsawa")
}
