package gate

// AcceptOutcome is the result of accepting in a Refusal gate.
type AcceptOutcome int

// Accept outcomes.
const (
	AcceptIgnored AcceptOutcome = iota
	// AcceptNext moves on to the next question.
	AcceptNext
	// AcceptFinal answers the last question; the gate is done.
	AcceptFinal
)

// Refusal is the escalating-refusal gate over a run of yes/no questions.
// Declining never advances; each decline bumps a counter up to maxDeclines.
// Accepting always succeeds.
type Refusal struct {
	questions   int
	maxDeclines int
	current     int
	declines    int
	done        bool
}

// NewRefusal returns a gate over the given number of questions.
func NewRefusal(questions, maxDeclines int) *Refusal {
	return &Refusal{
		questions:   max(questions, 1),
		maxDeclines: maxDeclines,
	}
}

// Decline records a refusal. It reports false, and changes nothing, once the
// cap is reached or the gate is done.
func (r *Refusal) Decline() bool {
	if !r.CanDecline() {
		return false
	}
	r.declines++
	return true
}

// Accept answers the current question with yes.
func (r *Refusal) Accept() AcceptOutcome {
	if r.done {
		return AcceptIgnored
	}
	if r.current < r.questions-1 {
		r.current++
		r.declines = 0
		return AcceptNext
	}
	r.done = true
	return AcceptFinal
}

// CanDecline reports whether a decline would still count.
func (r *Refusal) CanDecline() bool {
	return !r.done && r.declines < r.maxDeclines
}

// Declines returns the declines on the current question.
func (r *Refusal) Declines() int { return r.declines }

// Question returns the zero-based index of the current question.
func (r *Refusal) Question() int { return r.current }

// Questions returns the number of questions.
func (r *Refusal) Questions() int { return r.questions }

// Done reports whether the last question was accepted.
func (r *Refusal) Done() bool { return r.done }

// AcceptScale is the accept button scale after n declines.
func AcceptScale(n int) float64 {
	return 1 + float64(n)*0.3
}

// DeclineScale is the decline button scale after n declines.
func DeclineScale(n int) float64 {
	return max(0.5, 1-float64(n)*0.1)
}

// DeclineOpacity is the decline button opacity after n declines.
func DeclineOpacity(n int) float64 {
	return max(0.3, 1-float64(n)*0.2)
}
