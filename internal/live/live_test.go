package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/greetly/internal/greeting"
	"github.com/ashureev/greetly/internal/identity"
	"github.com/ashureev/greetly/internal/sequencer"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const visitorID = "0b0e6a4e-8f0c-4c1a-9b55-7d6f1a2b3c4d"

type textRenderer struct{}

func (textRenderer) Render(snap sequencer.Snapshot) (string, error) {
	return fmt.Sprintf("%s %+v", snap.Step, snap.View), nil
}

func nameGreeting() *greeting.Greeting {
	return &greeting.Greeting{Steps: []greeting.Step{
		{ID: "name-gate", Kind: greeting.KindName, Name: &greeting.NameGate{
			Answer:   "piggy",
			Slot:     greeting.SlotFirst,
			Hints:    []string{"guess", "animal"},
			Retry:    "Try again!",
			RetryFor: time.Hour,
		}},
		{ID: "final", Kind: greeting.KindFinal, Final: &greeting.Final{Heading: "Dear {name}", Letter: "hi"}},
	}}
}

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *SessionManager) {
	t.Helper()
	sm := NewSessionManager()
	h := NewHandler(greeting.Static(nameGreeting()), textRenderer{}, sm, opts)
	srv := httptest.NewServer(identity.Middleware(true)(h))
	t.Cleanup(srv.Close)
	return srv, sm
}

func dial(t *testing.T, srv *httptest.Server, tab string, header http.Header) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?tab=" + tab
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

type serverMessage struct {
	Type string `json:"type"`
	Step string `json:"step"`
	Kind string `json:"kind"`
	HTML string `json:"html"`
}

func read(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg serverMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func send(t *testing.T, conn *websocket.Conn, msg clientMessage) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

func TestLiveSessionFlow(t *testing.T) {
	srv, sm := newTestServer(t, Options{IsDev: true})
	conn := dial(t, srv, "t1", nil)

	msg := read(t, conn)
	assert.Equal(t, "render", msg.Type)
	assert.Equal(t, "name-gate", msg.Step)
	assert.Equal(t, "name", msg.Kind)
	assert.Equal(t, 1, sm.Count())

	send(t, conn, clientMessage{Type: "submit", Value: "bear"})
	msg = read(t, conn)
	assert.Equal(t, "name-gate", msg.Step)
	assert.Contains(t, msg.HTML, "Attempts:1")
	assert.Contains(t, msg.HTML, "Hint:animal")

	send(t, conn, clientMessage{Type: "submit", Value: " Piggy "})
	msg = read(t, conn)
	assert.Equal(t, "final", msg.Step)
	assert.Contains(t, msg.HTML, "Dear Piggy")

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	assert.Eventually(t, func() bool { return sm.Count() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestPingPong(t *testing.T) {
	srv, _ := newTestServer(t, Options{IsDev: true})
	conn := dial(t, srv, "t1", nil)
	read(t, conn)

	send(t, conn, clientMessage{Type: "ping"})
	assert.Equal(t, "pong", read(t, conn).Type)
}

func TestUnknownAndMalformedMessagesAreIgnored(t *testing.T) {
	srv, _ := newTestServer(t, Options{IsDev: true})
	conn := dial(t, srv, "t1", nil)
	read(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("not json")))
	send(t, conn, clientMessage{Type: "resize"})
	send(t, conn, clientMessage{Type: "ping"})

	assert.Equal(t, "pong", read(t, conn).Type)
}

func TestThrottledEventsAreDropped(t *testing.T) {
	srv, sm := newTestServer(t, Options{IsDev: true, EventRate: 0.001, EventBurst: 1})
	header := http.Header{}
	header.Set("Cookie", identity.VisitorCookieName+"="+visitorID)
	conn := dial(t, srv, "t1", header)
	read(t, conn)

	send(t, conn, clientMessage{Type: "submit", Value: "bear"})
	assert.Contains(t, read(t, conn).HTML, "Attempts:1")

	send(t, conn, clientMessage{Type: "submit", Value: "piggy"})
	send(t, conn, clientMessage{Type: "ping"})
	assert.Equal(t, "pong", read(t, conn).Type)

	sess := sm.Get(visitorID, "t1")
	require.NotNil(t, sess)
	assert.Equal(t, "name-gate", sess.State().CurrentStep)
}

func TestSameTabReplacesSession(t *testing.T) {
	srv, sm := newTestServer(t, Options{IsDev: true})
	header := http.Header{}
	header.Set("Cookie", identity.VisitorCookieName+"="+visitorID)

	first := dial(t, srv, "t1", header)
	read(t, first)
	second := dial(t, srv, "t1", header)
	read(t, second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := first.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))

	assert.Eventually(t, func() bool { return sm.Count() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.NotNil(t, sm.Get(visitorID, "t1"))
}

// A peer that never reads does not answer the close handshake.
func dialSilent(t *testing.T, srv *httptest.Server, sm *SessionManager, tab string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	header.Set("Cookie", identity.VisitorCookieName+"="+visitorID)
	conn := dial(t, srv, tab, header)
	require.Eventually(t, func() bool { return sm.Get(visitorID, tab) != nil }, 5*time.Second, 10*time.Millisecond)
	return conn
}

func TestReplacingSilentPeerDoesNotDelayNewSession(t *testing.T) {
	srv, sm := newTestServer(t, Options{IsDev: true})
	dialSilent(t, srv, sm, "t1")

	header := http.Header{}
	header.Set("Cookie", identity.VisitorCookieName+"="+visitorID)
	start := time.Now()
	second := dial(t, srv, "t1", header)
	msg := read(t, second)

	assert.Equal(t, "name-gate", msg.Step)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClosingSilentPeersDoesNotBlock(t *testing.T) {
	srv, sm := newTestServer(t, Options{IsDev: true})
	for _, tab := range []string{"t1", "t2"} {
		dialSilent(t, srv, sm, tab)
		sm.Get(visitorID, tab).lastSeen.Store(time.Now().Add(-time.Hour).UnixNano())
	}

	start := time.Now()
	assert.Equal(t, 2, sm.CloseIdle(time.Now(), time.Minute))
	assert.Less(t, time.Since(start), time.Second)

	for _, tab := range []string{"t3", "t4"} {
		dialSilent(t, srv, sm, tab)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start = time.Now()
	sm.CloseAll(ctx, "shutdown")
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Zero(t, sm.Count())
}

func TestOriginRejected(t *testing.T) {
	srv, _ := newTestServer(t, Options{AllowedOrigin: "https://greet.example"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	header := http.Header{}
	header.Set("Origin", "https://evil.example")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSessionManager(t *testing.T) {
	sm := NewSessionManager()
	a := newSession("a", "v1", "t1", nil, nil)
	b := newSession("b", "v1", "t1", nil, nil)
	c := newSession("c", "v1", "t2", nil, nil)

	sm.Register(a)
	sm.Register(b)
	sm.Register(c)
	assert.Equal(t, 2, sm.Count())
	assert.Same(t, b, sm.Get("v1", "t1"))

	// A replaced session going away must not evict its replacement.
	sm.Unregister(a)
	assert.Same(t, b, sm.Get("v1", "t1"))

	sm.Unregister(b)
	assert.Nil(t, sm.Get("v1", "t1"))
	assert.Equal(t, 1, sm.Count())

	assert.Equal(t, 1, sm.CloseVisitor("v1"))
	assert.Zero(t, sm.Count())
	assert.Zero(t, sm.CloseVisitor("v1"))
}

func TestCloseIdle(t *testing.T) {
	sm := NewSessionManager()
	stale := newSession("stale", "v1", "t1", nil, nil)
	fresh := newSession("fresh", "v2", "t1", nil, nil)
	stale.lastSeen.Store(time.Now().Add(-time.Hour).UnixNano())
	sm.Register(stale)
	sm.Register(fresh)

	assert.Equal(t, 1, sm.CloseIdle(time.Now(), 30*time.Minute))
	assert.Nil(t, sm.Get("v1", "t1"))
	assert.Same(t, fresh, sm.Get("v2", "t1"))

	sm.CloseAll(context.Background(), "shutdown")
	assert.Zero(t, sm.Count())
}

func TestIdleReaper(t *testing.T) {
	sm := NewSessionManager()
	s := newSession("s", "v1", "t1", nil, nil)
	s.lastSeen.Store(time.Now().Add(-time.Hour).UnixNano())
	sm.Register(s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartIdleReaper(ctx, sm, time.Minute, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return sm.Count() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestSessionManagerConcurrentAccess(t *testing.T) {
	sm := NewSessionManager()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			sm.Register(newSession(strconv.Itoa(i), "v1", "tab-"+strconv.Itoa(i), nil, nil))
		}
	}()

	for i := 0; i < 1000; i++ {
		sm.Get("v1", "tab-"+strconv.Itoa(i))
		sm.Count()
	}
	<-done
	assert.Equal(t, 1000, sm.Count())
}
