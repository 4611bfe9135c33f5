package sequencer

import "time"

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The real clock uses time.AfterFunc.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// scope owns the timers of one mounted step. Exiting the step stops every
// timer, and the epoch check in fire drops callbacks that were already on
// their way when the step went away.
type scope struct {
	seq    *Sequencer
	stepID string
	epoch  uint64
	timers []Timer
}

// after runs fn on the sequencer after d, provided the step is still mounted.
func (sc *scope) after(d time.Duration, fn func()) {
	epoch := sc.epoch
	t := sc.seq.clock.AfterFunc(d, func() {
		sc.seq.fire(epoch, fn)
	})
	sc.timers = append(sc.timers, t)
}

// advance completes the step this scope belongs to.
func (sc *scope) advance(r Result) {
	sc.seq.advanceLocked(sc.stepID, r)
}

// state returns the session state. Only valid while the sequencer lock is held.
func (sc *scope) state() State {
	return sc.seq.state
}

func (sc *scope) stop() {
	for _, t := range sc.timers {
		t.Stop()
	}
	sc.timers = nil
}
