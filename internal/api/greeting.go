package api

import (
	"net/http"
	"time"

	"github.com/ashureev/greetly/internal/identity"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/greeting", h.GetGreeting)
		r.Get("/me", h.GetMe)
		r.Delete("/me/sessions", h.EndMySessions)
	})
}

// Health reports server status, live session count and the loaded content.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	status := map[string]interface{}{
		"status":          "healthy",
		"checks":          map[string]string{"api": "ok"},
		"active_sessions": h.sm.Count(),
		"uptime_seconds":  int64(time.Since(h.started).Seconds()),
	}
	statusCode := http.StatusOK

	if g := h.source.Current(); g == nil || len(g.Steps) == 0 {
		status["status"] = "degraded"
		status["checks"].(map[string]string)["content"] = "missing"
		statusCode = http.StatusServiceUnavailable
	} else {
		status["checks"].(map[string]string)["content"] = "ok"
		status["title"] = g.Title
	}

	JSON(w, statusCode, status)
}

type stepInfo struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// GetGreeting returns the title and step order of the loaded greeting.
// Answers and option correctness are never exposed.
func (h *Handler) GetGreeting(w http.ResponseWriter, _ *http.Request) {
	g := h.source.Current()
	if g == nil {
		Error(w, http.StatusServiceUnavailable, "greeting not loaded")
		return
	}

	steps := make([]stepInfo, len(g.Steps))
	for i, st := range g.Steps {
		steps[i] = stepInfo{ID: st.ID, Kind: string(st.Kind)}
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"title": g.Title,
		"steps": steps,
	})
}

// GetMe returns the caller's visitor identity and, when the calling tab has a
// live session, its progress.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	if visitorID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	tabID := identity.TabIDFromContext(r.Context())

	resp := map[string]interface{}{
		"visitor_id": visitorID,
		"tab_id":     tabID,
	}
	if s := h.sm.Get(visitorID, tabID); s != nil {
		resp["session_id"] = s.ID
		resp["state"] = s.State()
	}

	JSON(w, http.StatusOK, resp)
}

// EndMySessions closes every live session of the caller, in any tab.
func (h *Handler) EndMySessions(w http.ResponseWriter, r *http.Request) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	if visitorID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"closed": h.sm.CloseVisitor(visitorID),
	})
}
