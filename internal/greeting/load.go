package greeting

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDocument []byte

// ErrInvalid is returned when a greeting document fails validation.
var ErrInvalid = errors.New("invalid greeting")

// Defaults applied to optional fields left empty in a document.
const (
	DefaultWelcomeDuration = 3 * time.Second
	DefaultRetryFor        = 2 * time.Second
	DefaultErrorFor        = 2 * time.Second
	DefaultSelectAdvance   = 2 * time.Second
	DefaultPickAdvance     = 1500 * time.Millisecond
	DefaultQuestionAdvance = 2 * time.Second
	DefaultMaxDeclines     = 6
	DefaultColumns         = 4
	DefaultHearts          = 15
)

// Default returns the built-in greeting.
func Default() (*Greeting, error) {
	g, err := Parse(defaultDocument)
	if err != nil {
		return nil, fmt.Errorf("parse built-in greeting: %w", err)
	}
	return g, nil
}

// Load reads and validates a greeting document from disk.
func Load(path string) (*Greeting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read greeting %s: %w", path, err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load greeting %s: %w", path, err)
	}
	return g, nil
}

// Parse decodes a YAML greeting document, fills optional fields and validates it.
// Unknown fields are rejected so typos in hand-written documents surface early.
func Parse(data []byte) (*Greeting, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var g Greeting
	if err := dec.Decode(&g); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return nil, fmt.Errorf("decode greeting: %w", err)
	}

	g.applyDefaults()
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

func (g *Greeting) applyDefaults() {
	for i := range g.Steps {
		st := &g.Steps[i]
		switch st.Kind {
		case KindWelcome:
			if st.Welcome == nil {
				continue
			}
			for j := range st.Welcome.Texts {
				if st.Welcome.Texts[j].Duration == 0 {
					st.Welcome.Texts[j].Duration = DefaultWelcomeDuration
				}
			}
		case KindName:
			if st.Name == nil {
				continue
			}
			if st.Name.Slot == "" {
				st.Name.Slot = SlotFirst
			}
			if st.Name.RetryFor == 0 {
				st.Name.RetryFor = DefaultRetryFor
			}
			if st.Name.Button == "" {
				st.Name.Button = "Continue"
			}
			if st.Name.Retry == "" {
				st.Name.Retry = "Try again!"
			}
		case KindSelect:
			if st.Select == nil {
				continue
			}
			if st.Select.Mode == "" {
				st.Select.Mode = SelectToggle
			}
			if st.Select.ErrorFor == 0 {
				st.Select.ErrorFor = DefaultErrorFor
			}
			if st.Select.AdvanceAfter == 0 {
				st.Select.AdvanceAfter = DefaultSelectAdvance
			}
			if st.Select.Button == "" {
				st.Select.Button = "Done!"
			}
		case KindPick:
			if st.Pick != nil && st.Pick.AdvanceAfter == 0 {
				st.Pick.AdvanceAfter = DefaultPickAdvance
			}
		case KindQuestion:
			if st.Question == nil {
				continue
			}
			if st.Question.MaxDeclines == 0 {
				st.Question.MaxDeclines = DefaultMaxDeclines
			}
			if st.Question.AdvanceAfter == 0 {
				st.Question.AdvanceAfter = DefaultQuestionAdvance
			}
			if len(st.Question.DeclineLabels) == 0 {
				st.Question.DeclineLabels = []string{"{decline}"}
			}
			if len(st.Question.Prompts) == 0 {
				st.Question.Prompts = []string{"{prompt}"}
			}
		case KindFinal:
			if st.Final == nil {
				continue
			}
			if st.Final.Columns == 0 {
				st.Final.Columns = DefaultColumns
			}
			if st.Final.Hearts == 0 {
				st.Final.Hearts = DefaultHearts
			}
		}
	}
}

// Validate checks the structural rules of a greeting: a non-empty linear
// sequence of uniquely named steps that ends in exactly one final step, and
// kind-specific content that every gate can be completed with.
func (g *Greeting) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if len(g.Steps) == 0 {
		add("no steps")
		return errors.Join(errs...)
	}

	seen := make(map[string]bool, len(g.Steps))
	for i := range g.Steps {
		st := &g.Steps[i]
		if st.ID == "" {
			add("step %d: missing id", i)
		} else if seen[st.ID] {
			add("step %q: duplicate id", st.ID)
		}
		seen[st.ID] = true

		last := i == len(g.Steps)-1
		if st.Kind == KindFinal && !last {
			add("step %q: final step must be last", st.ID)
		}
		if last && st.Kind != KindFinal {
			add("step %q: last step must be of kind final", st.ID)
		}

		for _, err := range st.validate() {
			add("step %q: %s", st.ID, err)
		}
	}

	return errors.Join(errs...)
}

func (st *Step) validate() []string {
	var problems []string
	bad := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	for _, b := range st.blocks() {
		if b.set && b.kind != st.Kind {
			bad("unexpected %s block on a %s step", b.kind, st.Kind)
		}
	}

	switch st.Kind {
	case KindWelcome:
		if st.Welcome == nil || len(st.Welcome.Texts) == 0 {
			bad("welcome needs at least one text")
			break
		}
		for j, t := range st.Welcome.Texts {
			if t.Duration < 0 {
				bad("welcome text %d: negative duration", j)
			}
		}
	case KindName:
		if st.Name == nil {
			bad("missing name block")
			break
		}
		if st.Name.Answer == "" {
			bad("empty answer")
		}
		if len(st.Name.Hints) == 0 {
			bad("name needs at least one hint")
		}
		if st.Name.Slot != SlotFirst && st.Name.Slot != SlotSecond {
			bad("unknown slot %q", st.Name.Slot)
		}
		if st.Name.RetryFor < 0 {
			bad("negative retry_for")
		}
	case KindTransition:
		if st.Transition == nil {
			bad("missing transition block")
			break
		}
		if st.Transition.FirstDelay <= 0 || st.Transition.SecondDelay <= 0 {
			bad("transition delays must be positive")
		}
	case KindSelect:
		if st.Select == nil {
			bad("missing select block")
			break
		}
		if st.Select.Mode != SelectToggle && st.Select.Mode != SelectRemove {
			bad("unknown select mode %q", st.Select.Mode)
		}
		correct := 0
		for _, o := range st.Select.Options {
			if o.Correct {
				correct++
			}
		}
		if correct == 0 {
			bad("select needs at least one correct option")
		}
		if dup := duplicateOption(st.Select.Options); dup != "" {
			bad("duplicate option id %q", dup)
		}
		if st.Select.ErrorFor < 0 || st.Select.AdvanceAfter < 0 {
			bad("negative select duration")
		}
	case KindPick:
		if st.Pick == nil {
			bad("missing pick block")
			break
		}
		correct := 0
		for _, o := range st.Pick.Candidates {
			if o.Correct {
				correct++
			}
		}
		if correct != 1 {
			bad("pick needs exactly one correct candidate, got %d", correct)
		}
		if dup := duplicateOption(st.Pick.Candidates); dup != "" {
			bad("duplicate candidate id %q", dup)
		}
		if st.Pick.AdvanceAfter < 0 {
			bad("negative advance_after")
		}
	case KindQuestion:
		if st.Question == nil || len(st.Question.Questions) == 0 {
			bad("question needs at least one question")
			break
		}
		if st.Question.MaxDeclines < 0 {
			bad("negative max_declines")
		}
		if st.Question.AdvanceAfter < 0 {
			bad("negative advance_after")
		}
	case KindFinal:
		if st.Final == nil {
			bad("missing final block")
			break
		}
		if st.Final.Columns < 0 {
			bad("negative columns")
		}
	default:
		bad("unknown kind %q", st.Kind)
	}
	return problems
}

type block struct {
	kind Kind
	set  bool
}

// blocks reports which kind-specific blocks are present, in declaration order.
func (st *Step) blocks() []block {
	return []block{
		{KindWelcome, st.Welcome != nil},
		{KindName, st.Name != nil},
		{KindTransition, st.Transition != nil},
		{KindSelect, st.Select != nil},
		{KindPick, st.Pick != nil},
		{KindQuestion, st.Question != nil},
		{KindFinal, st.Final != nil},
	}
}

func duplicateOption(opts []Option) string {
	seen := make(map[string]bool, len(opts))
	for _, o := range opts {
		if seen[o.ID] {
			return o.ID
		}
		seen[o.ID] = true
	}
	return ""
}
