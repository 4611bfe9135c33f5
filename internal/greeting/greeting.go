// Package greeting defines the content of a greeting: the ordered steps and the
// fixed texts, answers, options and media each step works with.
package greeting

import (
	"strings"
	"time"
)

// Kind identifies the interaction pattern of a step.
type Kind string

// Step kinds.
const (
	KindWelcome    Kind = "welcome"
	KindName       Kind = "name"
	KindTransition Kind = "transition"
	KindSelect     Kind = "select"
	KindPick       Kind = "pick"
	KindQuestion   Kind = "question"
	KindFinal      Kind = "final"
)

// Slot says which SessionState fields a name step fills on completion.
type Slot string

// Name slots.
const (
	SlotFirst  Slot = "first"
	SlotSecond Slot = "second"
)

// SelectMode controls what happens when a wrong option is chosen in a select step.
type SelectMode string

// Select modes.
const (
	// SelectToggle lets wrong options join the selection; submit rejects them.
	SelectToggle SelectMode = "toggle"
	// SelectRemove takes a wrong option out of the grid as soon as it is chosen.
	SelectRemove SelectMode = "remove"
)

// Greeting is a complete greeting document.
type Greeting struct {
	Title string `yaml:"title"`
	Steps []Step `yaml:"steps"`
}

// Step is a single screen. Exactly one of the kind-specific blocks is set,
// matching Kind.
type Step struct {
	ID         string      `yaml:"id"`
	Kind       Kind        `yaml:"kind"`
	Welcome    *Welcome    `yaml:"welcome,omitempty"`
	Name       *NameGate   `yaml:"name,omitempty"`
	Transition *Transition `yaml:"transition,omitempty"`
	Select     *Select     `yaml:"select,omitempty"`
	Pick       *Pick       `yaml:"pick,omitempty"`
	Question   *Question   `yaml:"question,omitempty"`
	Final      *Final      `yaml:"final,omitempty"`
}

// WelcomeText is one line of the welcome sequence.
type WelcomeText struct {
	Text     string        `yaml:"text"`
	Size     string        `yaml:"size,omitempty"`
	Duration time.Duration `yaml:"duration"`
}

// Welcome shows its texts one after another and then advances.
type Welcome struct {
	Texts []WelcomeText `yaml:"texts"`
}

// NameGate asks for a free-text answer compared case-insensitively.
type NameGate struct {
	Answer      string        `yaml:"answer"`
	Slot        Slot          `yaml:"slot"`
	Hints       []string      `yaml:"hints"`
	Placeholder string        `yaml:"placeholder,omitempty"`
	Button      string        `yaml:"button,omitempty"`
	Retry       string        `yaml:"retry,omitempty"`
	LastHint    string        `yaml:"last_hint,omitempty"`
	RetryFor    time.Duration `yaml:"retry_for,omitempty"`
}

// Transition shows a line addressed to the collected name, swaps it for a
// second line and then advances.
type Transition struct {
	First       string        `yaml:"first"`
	Second      string        `yaml:"second"`
	Image       string        `yaml:"image,omitempty"`
	FirstDelay  time.Duration `yaml:"first_delay"`
	SecondDelay time.Duration `yaml:"second_delay"`
}

// Option is a selectable entry of a select or pick step.
type Option struct {
	ID      string `yaml:"id"`
	Text    string `yaml:"text"`
	Image   string `yaml:"image,omitempty"`
	Correct bool   `yaml:"correct,omitempty"`
}

// Select is the multi-select completeness gate.
type Select struct {
	Title        string        `yaml:"title"`
	Subtitle     string        `yaml:"subtitle,omitempty"`
	Mode         SelectMode    `yaml:"mode,omitempty"`
	Shuffle      bool          `yaml:"shuffle,omitempty"`
	Options      []Option      `yaml:"options"`
	Rejection    string        `yaml:"rejection,omitempty"`
	Wrong        string        `yaml:"wrong,omitempty"`
	Incomplete   string        `yaml:"incomplete,omitempty"`
	Success      string        `yaml:"success,omitempty"`
	Button       string        `yaml:"button,omitempty"`
	ErrorFor     time.Duration `yaml:"error_for,omitempty"`
	AdvanceAfter time.Duration `yaml:"advance_after,omitempty"`
}

// Pick is a single choice among candidates with exactly one correct entry.
type Pick struct {
	Title        string        `yaml:"title"`
	Candidates   []Option      `yaml:"candidates"`
	Confirmation string        `yaml:"confirmation,omitempty"`
	AdvanceAfter time.Duration `yaml:"advance_after,omitempty"`
}

// QuestionItem is one yes/no question.
type QuestionItem struct {
	Prompt  string `yaml:"prompt"`
	Accept  string `yaml:"accept"`
	Decline string `yaml:"decline"`
}

// Question is the escalating-refusal gate. The variant lists are indexed by
// the number of declines so far, clamped to the last entry. In the label and
// prompt lists, {decline} and {prompt} stand for the current question's own
// text.
type Question struct {
	Questions       []QuestionItem `yaml:"questions"`
	DeclineLabels   []string       `yaml:"decline_labels,omitempty"`
	Prompts         []string       `yaml:"prompts,omitempty"`
	Footnotes       []string       `yaml:"footnotes,omitempty"`
	MaxDeclines     int            `yaml:"max_declines,omitempty"`
	GiantAccept     bool           `yaml:"giant_accept,omitempty"`
	GiantAcceptText string         `yaml:"giant_accept_text,omitempty"`
	AdvanceAfter    time.Duration  `yaml:"advance_after,omitempty"`
}

// Final is the terminal letter and gallery.
type Final struct {
	Heading string   `yaml:"heading"`
	Letter  string   `yaml:"letter"`
	Gallery []string `yaml:"gallery,omitempty"`
	Columns int      `yaml:"columns,omitempty"`
	Hearts  int      `yaml:"hearts,omitempty"`
}

// Expand substitutes the {name} and {second_name} placeholders.
func Expand(s, name, secondName string) string {
	if !strings.Contains(s, "{") {
		return s
	}
	return strings.NewReplacer("{name}", name, "{second_name}", secondName).Replace(s)
}
