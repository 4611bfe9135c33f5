// Package api provides the JSON HTTP handlers of the greeting server.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ashureev/greetly/internal/greeting"
	"github.com/ashureev/greetly/internal/live"
)

// ContentSource provides the greeting currently served.
type ContentSource interface {
	Current() *greeting.Greeting
}

// Handler provides common handler utilities.
type Handler struct {
	source  ContentSource
	sm      *live.SessionManager
	started time.Time
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(source ContentSource, sm *live.SessionManager) *Handler {
	return &Handler{
		source:  source,
		sm:      sm,
		started: time.Now(),
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
