// Package sequencer runs a greeting: it mounts one step at a time, feeds it
// user events and timer expirations, and moves to the next step in the fixed
// order when the step's gate is satisfied.
package sequencer

import (
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/ashureev/greetly/internal/greeting"
)

// State is the per-session data collected along the way.
type State struct {
	CurrentStep           string `json:"current_step"`
	CollectedName         string `json:"collected_name"`
	CollectedNameAttempts int    `json:"collected_name_attempts"`
	SecondName            string `json:"second_name"`
	SecondNameAttempts    int    `json:"second_name_attempts"`
}

// Result is the data a step forwards when it completes.
type Result struct {
	Name     string
	Attempts int
}

// EventType names a user action.
type EventType string

// User actions.
const (
	EventSubmit  EventType = "submit"
	EventToggle  EventType = "toggle"
	EventPick    EventType = "pick"
	EventAccept  EventType = "accept"
	EventDecline EventType = "decline"
)

// Event is a user action routed to the active step.
type Event struct {
	Type   EventType `json:"type"`
	Value  string    `json:"value,omitempty"`
	Option string    `json:"option,omitempty"`
}

// step is the behaviour of one mounted screen. All methods run with the
// sequencer lock held.
type step interface {
	enter(sc *scope)
	handle(ev Event)
	view() any
}

// Snapshot is a consistent copy of what should be on screen.
type Snapshot struct {
	Step  string
	Kind  greeting.Kind
	Index int
	Total int
	State State
	View  any
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithClock replaces the wall clock used for step timers.
func WithClock(c Clock) Option {
	return func(s *Sequencer) { s.clock = c }
}

// WithRand sets the random source used to shuffle options.
func WithRand(r *rand.Rand) Option {
	return func(s *Sequencer) { s.rng = r }
}

// WithListener registers fn to be called after every change. It is called
// without the sequencer lock held and must not block.
func WithListener(fn func()) Option {
	return func(s *Sequencer) { s.listener = fn }
}

// WithLogger sets the logger for step transitions.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sequencer) { s.logger = l }
}

// Sequencer owns the session state and the active step. User events and
// timer callbacks are serialised through one mutex.
type Sequencer struct {
	mu       sync.Mutex
	g        *greeting.Greeting
	clock    Clock
	rng      *rand.Rand
	listener func()
	logger   *slog.Logger

	index   int
	state   State
	active  step
	sc      *scope
	epoch   uint64
	started bool
	closed  bool
}

// New returns a sequencer positioned on the first step of g. Nothing is
// mounted until Start. g must have passed validation.
func New(g *greeting.Greeting, opts ...Option) *Sequencer {
	s := &Sequencer{
		g:      g,
		clock:  realClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s.state.CurrentStep = g.Steps[0].ID
	return s
}

// Start mounts the first step. Calling it again has no effect.
func (s *Sequencer) Start() {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mountLocked()
	s.mu.Unlock()
	s.notify()
}

// Advance completes step from with result r and mounts the next step. It
// reports false, and changes nothing, when from is not the active step, when
// the active step is terminal, or when the sequencer is closed.
func (s *Sequencer) Advance(from string, r Result) bool {
	s.mu.Lock()
	moved := s.advanceLocked(from, r)
	s.mu.Unlock()
	if moved {
		s.notify()
	}
	return moved
}

// Dispatch routes a user event to the active step.
func (s *Sequencer) Dispatch(ev Event) {
	s.mu.Lock()
	if !s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.active.handle(ev)
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns the active step and its view model.
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	def := &s.g.Steps[s.index]
	snap := Snapshot{
		Step:  def.ID,
		Kind:  def.Kind,
		Index: s.index,
		Total: len(s.g.Steps),
		State: s.state,
	}
	if s.active != nil {
		snap.View = s.active.view()
	}
	return snap
}

// State returns a copy of the session state.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close unmounts the active step and cancels its timers. Further events,
// timers and advances are ignored.
func (s *Sequencer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.unmountLocked()
}

// fire runs a timer callback if the step that scheduled it is still mounted.
func (s *Sequencer) fire(epoch uint64, fn func()) {
	s.mu.Lock()
	if s.closed || epoch != s.epoch {
		s.mu.Unlock()
		return
	}
	fn()
	s.mu.Unlock()
	s.notify()
}

func (s *Sequencer) advanceLocked(from string, r Result) bool {
	if s.closed || !s.started || from != s.state.CurrentStep {
		return false
	}
	def := &s.g.Steps[s.index]
	if def.Kind == greeting.KindFinal || s.index+1 >= len(s.g.Steps) {
		return false
	}

	if def.Kind == greeting.KindName && def.Name != nil {
		switch def.Name.Slot {
		case greeting.SlotSecond:
			s.state.SecondName = r.Name
			s.state.SecondNameAttempts = r.Attempts
		default:
			s.state.CollectedName = r.Name
			s.state.CollectedNameAttempts = r.Attempts
		}
	}

	s.unmountLocked()
	s.index++
	s.state.CurrentStep = s.g.Steps[s.index].ID
	s.mountLocked()

	s.logger.Debug("Step advanced", "from", from, "to", s.state.CurrentStep)
	return true
}

func (s *Sequencer) mountLocked() {
	s.epoch++
	def := &s.g.Steps[s.index]
	s.sc = &scope{seq: s, stepID: def.ID, epoch: s.epoch}
	s.active = newStep(def, s.rng)
	s.active.enter(s.sc)
}

func (s *Sequencer) unmountLocked() {
	if s.sc != nil {
		s.sc.stop()
	}
	// Bumping the epoch invalidates callbacks already waiting on the lock.
	s.epoch++
}

func (s *Sequencer) notify() {
	if s.listener != nil {
		s.listener()
	}
}
