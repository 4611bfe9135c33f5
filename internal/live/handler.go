package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ashureev/greetly/internal/greeting"
	"github.com/ashureev/greetly/internal/identity"
	"github.com/ashureev/greetly/internal/sequencer"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const maxMessageBytes = 4096

// ContentSource provides the greeting a new session runs.
type ContentSource interface {
	Current() *greeting.Greeting
}

// Renderer turns a snapshot into an HTML fragment.
type Renderer interface {
	Render(snap sequencer.Snapshot) (string, error)
}

// Options configures a Handler.
type Options struct {
	AllowedOrigin string
	IsDev         bool
	// EventRate and EventBurst size the per-connection token bucket for user
	// events. A zero rate disables throttling.
	EventRate  float64
	EventBurst int
	// SequencerOptions are applied to every new sequencer.
	SequencerOptions []sequencer.Option
}

// Handler serves live greeting sessions.
type Handler struct {
	source   ContentSource
	renderer Renderer
	sm       *SessionManager
	opts     Options
}

// NewHandler creates a new live session handler.
func NewHandler(source ContentSource, renderer Renderer, sm *SessionManager, opts Options) *Handler {
	return &Handler{
		source:   source,
		renderer: renderer,
		sm:       sm,
		opts:     opts,
	}
}

// clientMessage is what the browser sends.
type clientMessage struct {
	Type   string `json:"type"`
	Value  string `json:"value,omitempty"`
	Option string `json:"option,omitempty"`
}

// renderMessage carries the active screen to the browser.
type renderMessage struct {
	Type  string `json:"type"`
	Step  string `json:"step"`
	Kind  string `json:"kind"`
	Index int    `json:"index"`
	Total int    `json:"total"`
	HTML  string `json:"html"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	tabID := identity.TabIDFromContext(r.Context())
	slog.Info("WebSocket connection request", "visitor_id", visitorID, "tab_id", tabID, "ip", identity.IPFromRequest(r))

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "visitor_id", visitorID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "visitor_id", visitorID)
		}
	}()
	ws.SetReadLimit(maxMessageBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sessionID := uuid.NewString()
	logger := slog.Default().With("session_id", sessionID, "visitor_id", visitorID)

	// One pending signal is enough: the writer always renders the latest
	// snapshot.
	dirty := make(chan struct{}, 1)
	markDirty := func() {
		select {
		case dirty <- struct{}{}:
		default:
		}
	}

	opts := append([]sequencer.Option{}, h.opts.SequencerOptions...)
	opts = append(opts, sequencer.WithListener(markDirty), sequencer.WithLogger(logger))
	seq := sequencer.New(h.source.Current(), opts...)
	defer seq.Close()

	sess := newSession(sessionID, visitorID, tabID, ws, seq)
	h.sm.Register(sess)
	defer h.sm.Unregister(sess)

	seq.Start()

	var wg sync.WaitGroup
	wg.Add(2)

	// Input loop: WebSocket -> sequencer.
	go func() {
		defer wg.Done()
		defer cancel()
		h.inputLoop(ctx, sess, logger)
	}()

	// Output loop: sequencer -> WebSocket.
	go func() {
		defer wg.Done()
		defer cancel()
		h.outputLoop(ctx, sess, dirty, logger)
	}()

	wg.Wait()
	logger.Info("Live session ended", "step", seq.State().CurrentStep)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.opts.IsDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.opts.AllowedOrigin == "" || h.opts.AllowedOrigin == "*" {
		return true
	}
	if origin == h.opts.AllowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.opts.AllowedOrigin)
	return false
}

func (h *Handler) newLimiter() *rate.Limiter {
	if h.opts.EventRate <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := h.opts.EventBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(h.opts.EventRate), burst)
}

func (h *Handler) inputLoop(ctx context.Context, sess *Session, logger *slog.Logger) {
	limiter := h.newLimiter()
	for {
		_, message, err := sess.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				logger.Debug("WebSocket closed by client")
			} else if ctx.Err() == nil {
				logger.Warn("WebSocket read error", "error", err)
			}
			return
		}
		sess.Touch()

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Debug("Ignoring malformed message", "error", err)
			continue
		}

		if msg.Type == "ping" {
			if err := writeJSON(ctx, sess.conn, map[string]string{"type": "pong"}); err != nil {
				logger.Debug("Failed to send pong", "error", err)
			}
			continue
		}

		if !limiter.Allow() {
			logger.Debug("Dropping throttled event", "type", msg.Type)
			continue
		}

		switch t := sequencer.EventType(msg.Type); t {
		case sequencer.EventSubmit, sequencer.EventToggle, sequencer.EventPick,
			sequencer.EventAccept, sequencer.EventDecline:
			sess.seq.Dispatch(sequencer.Event{Type: t, Value: msg.Value, Option: msg.Option})
		default:
			logger.Debug("Ignoring unknown message type", "type", msg.Type)
		}
	}
}

func (h *Handler) outputLoop(ctx context.Context, sess *Session, dirty <-chan struct{}, logger *slog.Logger) {
	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-dirty:
		}

		snap := sess.seq.Snapshot()
		html, err := h.renderer.Render(snap)
		if err != nil {
			logger.Error("Failed to render step", "error", err, "step", snap.Step)
			return
		}
		if html == last {
			continue
		}
		last = html

		msg := renderMessage{
			Type:  "render",
			Step:  snap.Step,
			Kind:  string(snap.Kind),
			Index: snap.Index,
			Total: snap.Total,
			HTML:  html,
		}
		if err := writeJSON(ctx, sess.conn, msg); err != nil {
			if ctx.Err() == nil {
				logger.Debug("WebSocket write error", "error", err)
			}
			return
		}
	}
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
