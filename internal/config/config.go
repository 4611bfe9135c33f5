// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	Port           string   `env:"PORT"            envDefault:"8080"`
	FrontendURL    string   `env:"FRONTEND_URL"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// ContentPath is the greeting YAML document. Empty uses the built-in one.
	ContentPath  string `env:"GREETING_CONTENT"`
	WatchContent bool   `env:"GREETING_WATCH"`
	AssetDir     string `env:"ASSET_DIR"        envDefault:"./photos"`

	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	ReaperInterval     time.Duration `env:"REAPER_INTERVAL"      envDefault:"1m"`

	EventRate  float64 `env:"EVENT_RATE"  envDefault:"20"`
	EventBurst int     `env:"EVENT_BURST" envDefault:"40"`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	for i, o := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT cannot be empty"))
	}
	if len(c.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("ALLOWED_ORIGINS cannot be empty"))
	}
	if c.WatchContent && c.ContentPath == "" {
		errs = append(errs, errors.New("GREETING_WATCH requires GREETING_CONTENT"))
	}
	if c.SessionIdleTimeout <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TIMEOUT must be > 0"))
	}
	if c.ReaperInterval <= 0 {
		errs = append(errs, errors.New("REAPER_INTERVAL must be > 0"))
	}
	if c.EventRate < 0 {
		errs = append(errs, errors.New("EVENT_RATE must be >= 0"))
	}
	if c.EventRate > 0 && c.EventBurst <= 0 {
		errs = append(errs, errors.New("EVENT_BURST must be > 0 when EVENT_RATE is set"))
	}
	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// WebSocketOrigin returns the origin live sessions accept outside
// development.
func (c *Config) WebSocketOrigin() string {
	if c.FrontendURL == "" {
		return "*"
	}
	return strings.TrimRight(c.FrontendURL, "/")
}
