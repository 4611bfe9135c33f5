package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFrom(t *testing.T, environ map[string]string) (*Config, error) {
	t.Helper()
	return load(env.Options{Environment: environ})
}

func TestDefaults(t *testing.T) {
	cfg, err := loadFrom(t, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.ContentPath)
	assert.False(t, cfg.WatchContent)
	assert.Equal(t, "./photos", cfg.AssetDir)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, time.Minute, cfg.ReaperInterval)
	assert.InDelta(t, 20.0, cfg.EventRate, 1e-9)
	assert.Equal(t, 40, cfg.EventBurst)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "*", cfg.WebSocketOrigin())
}

func TestOverrides(t *testing.T) {
	cfg, err := loadFrom(t, map[string]string{
		"PORT":                 "9000",
		"FRONTEND_URL":         "https://greet.example/",
		"ALLOWED_ORIGINS":      "https://a.example, https://b.example",
		"GREETING_CONTENT":     "/etc/greetly/content.yaml",
		"GREETING_WATCH":       "true",
		"SESSION_IDLE_TIMEOUT": "5m",
		"EVENT_RATE":           "0",
		"LOG_LEVEL":            "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "/etc/greetly/content.yaml", cfg.ContentPath)
	assert.True(t, cfg.WatchContent)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTimeout)
	assert.Zero(t, cfg.EventRate)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "https://greet.example", cfg.WebSocketOrigin())
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
	}{
		{"bad duration", map[string]string{"SESSION_IDLE_TIMEOUT": "soon"}},
		{"zero timeout", map[string]string{"SESSION_IDLE_TIMEOUT": "0s"}},
		{"watch without path", map[string]string{"GREETING_WATCH": "true"}},
		{"negative rate", map[string]string{"EVENT_RATE": "-1"}},
		{"rate without burst", map[string]string{"EVENT_BURST": "0"}},
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadFrom(t, tt.environ)
			assert.Error(t, err)
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{"http://127.0.0.1:8080", true},
		{"https://greet.example", false},
	}
	for _, tt := range tests {
		c := &Config{FrontendURL: tt.url}
		assert.Equal(t, tt.want, c.IsDevelopment(), tt.url)
	}
}
