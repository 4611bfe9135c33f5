package gate

// Choice is an option offered by a Select or Pick gate.
type Choice struct {
	ID      string
	Correct bool
}

// ToggleOutcome is the result of clicking an option in a Select gate.
type ToggleOutcome int

// Toggle outcomes.
const (
	ToggleIgnored ToggleOutcome = iota
	ToggleSelected
	ToggleDeselected
	// ToggleSelectedWrong means a wrong option joined the selection.
	ToggleSelectedWrong
	// ToggleRemoved means a wrong option was taken out of play.
	ToggleRemoved
)

// SubmitOutcome is the result of submitting a Select gate.
type SubmitOutcome int

// Submit outcomes.
const (
	// SubmitIgnored means the gate was already complete.
	SubmitIgnored SubmitOutcome = iota
	// SubmitWrong means at least one wrong option is selected.
	SubmitWrong
	// SubmitIncomplete means some correct options are missing.
	SubmitIncomplete
	// SubmitComplete means the selection equals the correct set.
	SubmitComplete
)

// Select is the multi-select completeness gate. With removeWrong set, a
// wrong option is removed as soon as it is chosen and never selected.
type Select struct {
	choices     []Choice
	index       map[string]int
	removeWrong bool
	selected    map[string]bool
	removed     map[string]bool
	submitted   bool
	complete    bool
}

// NewSelect returns a gate over choices.
func NewSelect(choices []Choice, removeWrong bool) *Select {
	idx := make(map[string]int, len(choices))
	for i, c := range choices {
		idx[c.ID] = i
	}
	return &Select{
		choices:     choices,
		index:       idx,
		removeWrong: removeWrong,
		selected:    make(map[string]bool),
		removed:     make(map[string]bool),
	}
}

// Toggle flips the selection of option id.
func (s *Select) Toggle(id string) ToggleOutcome {
	i, ok := s.index[id]
	if !ok || s.complete || s.removed[id] {
		return ToggleIgnored
	}

	if s.selected[id] {
		delete(s.selected, id)
		return ToggleDeselected
	}

	if !s.choices[i].Correct {
		if s.removeWrong {
			s.removed[id] = true
			return ToggleRemoved
		}
		s.selected[id] = true
		return ToggleSelectedWrong
	}

	s.selected[id] = true
	return ToggleSelected
}

// Submit tests the selection. Only the exact correct set completes the gate;
// once complete, further submits are ignored.
func (s *Select) Submit() SubmitOutcome {
	if s.complete {
		return SubmitIgnored
	}
	s.submitted = true

	for id := range s.selected {
		if !s.choices[s.index[id]].Correct {
			return SubmitWrong
		}
	}
	if s.CorrectSelected() != s.CorrectTotal() {
		return SubmitIncomplete
	}

	s.complete = true
	return SubmitComplete
}

// Selected reports whether option id is selected.
func (s *Select) Selected(id string) bool { return s.selected[id] }

// Removed reports whether option id was taken out of play.
func (s *Select) Removed(id string) bool { return s.removed[id] }

// Submitted reports whether Submit has been called at least once.
func (s *Select) Submitted() bool { return s.submitted }

// Complete reports whether the gate has been satisfied.
func (s *Select) Complete() bool { return s.complete }

// CorrectSelected returns how many correct options are selected.
func (s *Select) CorrectSelected() int {
	n := 0
	for id := range s.selected {
		if s.choices[s.index[id]].Correct {
			n++
		}
	}
	return n
}

// CorrectTotal returns the number of correct options.
func (s *Select) CorrectTotal() int {
	n := 0
	for _, c := range s.choices {
		if c.Correct {
			n++
		}
	}
	return n
}

// PickOutcome is the result of choosing a candidate in a Pick gate.
type PickOutcome int

// Pick outcomes.
const (
	PickIgnored PickOutcome = iota
	PickWrong
	PickCorrect
)

// Pick is a single-choice gate with exactly one correct candidate.
type Pick struct {
	choices map[string]bool
	wrong   map[string]bool
	chosen  string
}

// NewPick returns a gate over choices.
func NewPick(choices []Choice) *Pick {
	m := make(map[string]bool, len(choices))
	for _, c := range choices {
		m[c.ID] = c.Correct
	}
	return &Pick{choices: m, wrong: make(map[string]bool)}
}

// Choose picks candidate id. After the correct candidate is chosen every
// further pick is ignored.
func (p *Pick) Choose(id string) PickOutcome {
	correct, ok := p.choices[id]
	if !ok || p.chosen != "" {
		return PickIgnored
	}
	if !correct {
		p.wrong[id] = true
		return PickWrong
	}
	p.chosen = id
	return PickCorrect
}

// Wrong reports whether id was picked and rejected.
func (p *Pick) Wrong(id string) bool { return p.wrong[id] }

// Chosen returns the correct candidate once picked.
func (p *Pick) Chosen() string { return p.chosen }
