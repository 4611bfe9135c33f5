// Package gate implements the completion predicates of greeting steps. Gates
// are plain state holders with no clocks or I/O; the sequencer wraps them with
// timers and rendering.
package gate

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize prepares free-text input for comparison: surrounding space is
// trimmed, the text is put in NFC form and lowercased.
func Normalize(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(s)))
}

// MatchOutcome is the result of submitting an answer to a Match gate.
type MatchOutcome int

// Match outcomes.
const (
	// MatchEmpty means the input was blank; nothing was counted.
	MatchEmpty MatchOutcome = iota
	// MatchWrong means the answer did not match and the attempt was counted.
	MatchWrong
	// MatchCorrect means the answer matched.
	MatchCorrect
)

func (o MatchOutcome) String() string {
	switch o {
	case MatchEmpty:
		return "empty"
	case MatchWrong:
		return "wrong"
	case MatchCorrect:
		return "correct"
	default:
		return "unknown"
	}
}

// Match is a case-insensitive exact-string gate with escalating hints.
type Match struct {
	expected string
	hints    []string
	attempts int
}

// NewMatch returns a gate expecting answer.
func NewMatch(answer string, hints []string) *Match {
	return &Match{
		expected: Normalize(answer),
		hints:    hints,
	}
}

// Submit checks input against the expected answer. Each non-empty wrong
// answer increments the attempt counter by one.
func (m *Match) Submit(input string) MatchOutcome {
	got := Normalize(input)
	if got == "" {
		return MatchEmpty
	}
	if got == m.expected {
		return MatchCorrect
	}
	m.attempts++
	return MatchWrong
}

// Attempts returns the number of wrong answers so far.
func (m *Match) Attempts() int {
	return m.attempts
}

// Hint returns the hint for the current attempt count. Once the list is
// exhausted the last hint is reused.
func (m *Match) Hint() string {
	return Variant(m.hints, m.attempts)
}

// HintCount returns the number of hints.
func (m *Match) HintCount() int {
	return len(m.hints)
}

// OnLastHint reports whether the last hint is now showing.
func (m *Match) OnLastHint() bool {
	return m.attempts >= len(m.hints)-1
}

// Variant returns list[min(n, len(list)-1)], or the zero value for an empty list.
func Variant[T any](list []T, n int) T {
	var zero T
	if len(list) == 0 {
		return zero
	}
	if n < 0 {
		n = 0
	}
	return list[min(n, len(list)-1)]
}
