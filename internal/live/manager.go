// Package live serves greeting sessions over WebSocket: one sequencer per
// connection, rendered screens pushed to the browser, user events read back.
package live

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ashureev/greetly/internal/sequencer"
	"github.com/coder/websocket"
)

// Session is one live connection and the sequencer it drives.
type Session struct {
	ID        string
	VisitorID string
	TabID     string

	conn     *websocket.Conn
	seq      *sequencer.Sequencer
	lastSeen atomic.Int64
}

func newSession(id, visitorID, tabID string, conn *websocket.Conn, seq *sequencer.Sequencer) *Session {
	s := &Session{ID: id, VisitorID: visitorID, TabID: tabID, conn: conn, seq: seq}
	s.Touch()
	return s
}

// Touch records client activity.
func (s *Session) Touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// LastSeen returns the time of the last client activity.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// State returns the sequencer state, or the zero State for a session without
// one.
func (s *Session) State() sequencer.State {
	if s.seq == nil {
		return sequencer.State{}
	}
	return s.seq.State()
}

// Close ends the connection with a close handshake and waits for the peer to
// answer or the handshake to time out. The handler serving the connection then
// unwinds and closes the sequencer.
func (s *Session) Close(reason string) {
	if s.conn == nil {
		return
	}
	if err := s.conn.Close(websocket.StatusGoingAway, reason); err != nil {
		slog.Debug("Failed to close session", "error", err, "session_id", s.ID)
	}
}

// closeAsync starts Close without waiting for the peer.
func (s *Session) closeAsync(reason string) {
	if s.conn == nil {
		return
	}
	go s.Close(reason)
}

// closeNow drops the connection without a handshake.
func (s *Session) closeNow() {
	if s.conn == nil {
		return
	}
	_ = s.conn.CloseNow()
}

// SessionManager tracks live sessions by visitor and tab.
type SessionManager struct {
	mu     sync.RWMutex
	active map[string]map[string]*Session
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		active: make(map[string]map[string]*Session),
	}
}

// Get returns the live session for a visitor and tab.
func (m *SessionManager) Get(visitorID, tabID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tabs, ok := m.active[visitorID]; ok {
		return tabs[tabID]
	}
	return nil
}

// Register adds s. A session already open for the same visitor and tab is
// closed and replaced.
func (m *SessionManager) Register(s *Session) {
	m.mu.Lock()
	if _, exists := m.active[s.VisitorID]; !exists {
		m.active[s.VisitorID] = make(map[string]*Session)
	}
	existing := m.active[s.VisitorID][s.TabID]
	m.active[s.VisitorID][s.TabID] = s
	m.mu.Unlock()

	if existing != nil && existing != s {
		existing.closeAsync("session replaced")
	}
	slog.Info("Live session registered", "session_id", s.ID, "visitor_id", s.VisitorID, "tab_id", s.TabID)
}

// Unregister removes s if it is still the registered session for its tab.
func (m *SessionManager) Unregister(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tabs, ok := m.active[s.VisitorID]; ok {
		if current, exists := tabs[s.TabID]; exists && current == s {
			delete(tabs, s.TabID)
			if len(tabs) == 0 {
				delete(m.active, s.VisitorID)
			}
			slog.Info("Live session unregistered", "session_id", s.ID, "visitor_id", s.VisitorID)
		}
	}
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, tabs := range m.active {
		n += len(tabs)
	}
	return n
}

// CloseVisitor terminates every session of a visitor and returns how many
// were closed.
func (m *SessionManager) CloseVisitor(visitorID string) int {
	m.mu.Lock()
	tabs := m.active[visitorID]
	delete(m.active, visitorID)
	m.mu.Unlock()

	for _, s := range tabs {
		s.closeAsync("session closed")
		slog.Info("Live session closed", "session_id", s.ID, "visitor_id", visitorID)
	}
	return len(tabs)
}

// CloseIdle terminates sessions without client activity since now-ttl and
// returns how many were closed.
func (m *SessionManager) CloseIdle(now time.Time, ttl time.Duration) int {
	cutoff := now.Add(-ttl)

	m.mu.Lock()
	var idle []*Session
	for visitorID, tabs := range m.active {
		for tabID, s := range tabs {
			if s.LastSeen().Before(cutoff) {
				idle = append(idle, s)
				delete(tabs, tabID)
			}
		}
		if len(tabs) == 0 {
			delete(m.active, visitorID)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.closeAsync("idle timeout")
	}
	return len(idle)
}

// CloseAll terminates every session. Close handshakes run concurrently; those
// still pending when ctx is done are cut short.
func (m *SessionManager) CloseAll(ctx context.Context, reason string) {
	m.mu.Lock()
	all := m.active
	m.active = make(map[string]map[string]*Session)
	m.mu.Unlock()

	var sessions []*Session
	for _, tabs := range all {
		for _, s := range tabs {
			sessions = append(sessions, s)
		}
	}

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Close(reason)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		for _, s := range sessions {
			s.closeNow()
		}
		slog.Warn("Live sessions closed without handshake", "count", len(sessions), "error", ctx.Err())
	}
}
