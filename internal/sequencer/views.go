package sequencer

// View models handed to the renderer, one per step kind.

// WelcomeView shows one line of the welcome sequence.
type WelcomeView struct {
	Text     string
	Size     string
	Seconds  float64
	Position int
}

// NameView is the name-guessing screen.
type NameView struct {
	Hint         string
	Placeholder  string
	Button       string
	Attempts     int
	HintCount    int
	ShowAttempts bool
	Retry        string
	Shake        bool
	// Flash changes on every rejected submit so the client can clear the
	// input and replay the shake.
	Flash int
}

// TransitionView is the interstitial between the name steps.
type TransitionView struct {
	Text   string
	Image  string
	Second bool
}

// OptionView is one entry of a select grid.
type OptionView struct {
	ID       string
	Text     string
	Selected bool
	Removed  bool
}

// SelectView is the multi-select screen.
type SelectView struct {
	Title           string
	Subtitle        string
	Options         []OptionView
	Error           string
	ShowProgress    bool
	CorrectSelected int
	CorrectTotal    int
	Complete        bool
	Success         string
	Button          string
}

// CandidateView is one card of a pick screen.
type CandidateView struct {
	ID     string
	Name   string
	Image  string
	Wrong  bool
	Chosen bool
}

// PickView is the single-pick screen.
type PickView struct {
	Title        string
	Candidates   []CandidateView
	Confirmation string
	Shake        int
}

// QuestionView is the yes/no screen with escalating refusals.
type QuestionView struct {
	Prompt          string
	AcceptLabel     string
	DeclineLabel    string
	Footnote        string
	AcceptScale     float64
	DeclineScale    float64
	DeclineOpacity  float64
	AcceptAlarm     bool
	DeclineDisabled bool
	GiantAccept     bool
	Declines        int
	Question        int
	Questions       int
	Hearts          bool
}

// Tile is one image in a gallery column.
type Tile struct {
	Src    string
	Height int
}

// Column is one auto-scrolling gallery column.
type Column struct {
	Tiles    []Tile
	Reverse  bool
	Seconds  int
	OffsetPx int
}

// FinalView is the letter and gallery.
type FinalView struct {
	Heading string
	Letter  string
	Columns []Column
	Hearts  int
}
