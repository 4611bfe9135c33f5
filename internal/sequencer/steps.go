package sequencer

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/ashureev/greetly/internal/gate"
	"github.com/ashureev/greetly/internal/greeting"
)

const shakeFor = 500 * time.Millisecond

func newStep(def *greeting.Step, rng *rand.Rand) step {
	switch def.Kind {
	case greeting.KindWelcome:
		return &welcomeStep{def: def.Welcome}
	case greeting.KindName:
		return &nameStep{def: def.Name, gate: gate.NewMatch(def.Name.Answer, def.Name.Hints)}
	case greeting.KindTransition:
		return &transitionStep{def: def.Transition}
	case greeting.KindSelect:
		return newSelectStep(def.Select, rng)
	case greeting.KindPick:
		return newPickStep(def.Pick)
	case greeting.KindQuestion:
		return &questionStep{
			def:  def.Question,
			gate: gate.NewRefusal(len(def.Question.Questions), def.Question.MaxDeclines),
		}
	default:
		return &finalStep{def: def.Final}
	}
}

func expand(sc *scope, s string) string {
	st := sc.state()
	return greeting.Expand(s, st.CollectedName, st.SecondName)
}

// welcomeStep shows each text for its duration and advances after the last.
type welcomeStep struct {
	def *greeting.Welcome
	sc  *scope
	pos int
}

func (w *welcomeStep) enter(sc *scope) {
	w.sc = sc
	w.schedule()
}

func (w *welcomeStep) schedule() {
	w.sc.after(w.def.Texts[w.pos].Duration, func() {
		if w.pos == len(w.def.Texts)-1 {
			w.sc.advance(Result{})
			return
		}
		w.pos++
		w.schedule()
	})
}

func (w *welcomeStep) handle(Event) {}

func (w *welcomeStep) view() any {
	t := w.def.Texts[w.pos]
	return WelcomeView{
		Text:     expand(w.sc, t.Text),
		Size:     t.Size,
		Seconds:  t.Duration.Seconds(),
		Position: w.pos,
	}
}

// nameStep wraps the match gate with shake and retry feedback.
type nameStep struct {
	def   *greeting.NameGate
	gate  *gate.Match
	sc    *scope
	shake bool
	retry bool
	flash int
}

func (n *nameStep) enter(sc *scope) { n.sc = sc }

func (n *nameStep) handle(ev Event) {
	if ev.Type != EventSubmit {
		return
	}

	switch n.gate.Submit(ev.Value) {
	case gate.MatchEmpty:
		n.feedback(false, shakeFor)
	case gate.MatchWrong:
		n.feedback(true, n.def.RetryFor)
	case gate.MatchCorrect:
		n.sc.advance(Result{Name: strings.TrimSpace(ev.Value), Attempts: n.gate.Attempts()})
	}
}

// feedback shows the shake, and optionally the retry line, for d. A newer
// rejection takes over the display, so older clear timers are ignored.
func (n *nameStep) feedback(retry bool, d time.Duration) {
	n.flash++
	n.shake = true
	n.retry = retry
	flash := n.flash
	n.sc.after(d, func() {
		if n.flash != flash {
			return
		}
		n.shake = false
		n.retry = false
	})
}

func (n *nameStep) view() any {
	v := NameView{
		Hint:         expand(n.sc, n.gate.Hint()),
		Placeholder:  n.def.Placeholder,
		Button:       n.def.Button,
		Attempts:     n.gate.Attempts(),
		HintCount:    n.gate.HintCount(),
		ShowAttempts: n.gate.Attempts() > 0,
		Shake:        n.shake,
		Flash:        n.flash,
	}
	if n.retry && n.gate.Attempts() > 0 {
		v.Retry = n.def.Retry
		if n.gate.OnLastHint() && n.def.LastHint != "" {
			v.Retry += " " + n.def.LastHint
		}
	}
	return v
}

// transitionStep shows its first line, then the second, then advances.
type transitionStep struct {
	def    *greeting.Transition
	sc     *scope
	second bool
}

func (t *transitionStep) enter(sc *scope) {
	t.sc = sc
	sc.after(t.def.FirstDelay, func() {
		t.second = true
		sc.after(t.def.SecondDelay, func() {
			sc.advance(Result{})
		})
	})
}

func (t *transitionStep) handle(Event) {}

func (t *transitionStep) view() any {
	text := t.def.First
	if t.second {
		text = t.def.Second
	}
	return TransitionView{
		Text:   expand(t.sc, text),
		Image:  t.def.Image,
		Second: t.second,
	}
}

// selectStep wraps the multi-select gate.
type selectStep struct {
	def      *greeting.Select
	gate     *gate.Select
	order    []greeting.Option
	sc       *scope
	errMsg   string
	errFlash int
}

func newSelectStep(def *greeting.Select, rng *rand.Rand) *selectStep {
	order := make([]greeting.Option, len(def.Options))
	copy(order, def.Options)
	if def.Shuffle {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	choices := make([]gate.Choice, len(def.Options))
	for i, o := range def.Options {
		choices[i] = gate.Choice{ID: o.ID, Correct: o.Correct}
	}

	return &selectStep{
		def:   def,
		gate:  gate.NewSelect(choices, def.Mode == greeting.SelectRemove),
		order: order,
	}
}

func (s *selectStep) enter(sc *scope) { s.sc = sc }

func (s *selectStep) handle(ev Event) {
	switch ev.Type {
	case EventToggle:
		switch s.gate.Toggle(ev.Option) {
		case gate.ToggleSelectedWrong, gate.ToggleRemoved:
			s.showError(s.def.Rejection)
		case gate.ToggleSelected, gate.ToggleDeselected:
			s.errMsg = ""
		}
	case EventSubmit:
		switch s.gate.Submit() {
		case gate.SubmitWrong:
			s.showError(s.def.Wrong)
		case gate.SubmitIncomplete:
			s.showError(s.def.Incomplete)
		case gate.SubmitComplete:
			s.errMsg = ""
			s.sc.after(s.def.AdvanceAfter, func() {
				s.sc.advance(Result{})
			})
		}
	}
}

func (s *selectStep) showError(msg string) {
	if msg == "" {
		return
	}
	s.errFlash++
	s.errMsg = msg
	flash := s.errFlash
	s.sc.after(s.def.ErrorFor, func() {
		if s.errFlash == flash {
			s.errMsg = ""
		}
	})
}

func (s *selectStep) view() any {
	opts := make([]OptionView, len(s.order))
	for i, o := range s.order {
		opts[i] = OptionView{
			ID:       o.ID,
			Text:     expand(s.sc, o.Text),
			Selected: s.gate.Selected(o.ID),
			Removed:  s.gate.Removed(o.ID),
		}
	}
	return SelectView{
		Title:           expand(s.sc, s.def.Title),
		Subtitle:        expand(s.sc, s.def.Subtitle),
		Options:         opts,
		Error:           s.errMsg,
		ShowProgress:    s.gate.Submitted() && !s.gate.Complete(),
		CorrectSelected: s.gate.CorrectSelected(),
		CorrectTotal:    s.gate.CorrectTotal(),
		Complete:        s.gate.Complete(),
		Success:         expand(s.sc, s.def.Success),
		Button:          s.def.Button,
	}
}

// pickStep wraps the single-pick gate.
type pickStep struct {
	def   *greeting.Pick
	gate  *gate.Pick
	sc    *scope
	shake int
}

func newPickStep(def *greeting.Pick) *pickStep {
	choices := make([]gate.Choice, len(def.Candidates))
	for i, c := range def.Candidates {
		choices[i] = gate.Choice{ID: c.ID, Correct: c.Correct}
	}
	return &pickStep{def: def, gate: gate.NewPick(choices)}
}

func (p *pickStep) enter(sc *scope) { p.sc = sc }

func (p *pickStep) handle(ev Event) {
	if ev.Type != EventPick {
		return
	}
	switch p.gate.Choose(ev.Option) {
	case gate.PickWrong:
		p.shake++
	case gate.PickCorrect:
		p.sc.after(p.def.AdvanceAfter, func() {
			p.sc.advance(Result{})
		})
	}
}

func (p *pickStep) view() any {
	cands := make([]CandidateView, len(p.def.Candidates))
	for i, c := range p.def.Candidates {
		cands[i] = CandidateView{
			ID:     c.ID,
			Name:   expand(p.sc, c.Text),
			Image:  c.Image,
			Wrong:  p.gate.Wrong(c.ID),
			Chosen: p.gate.Chosen() == c.ID,
		}
	}
	v := PickView{
		Title:      expand(p.sc, p.def.Title),
		Candidates: cands,
		Shake:      p.shake,
	}
	if p.gate.Chosen() != "" {
		v.Confirmation = expand(p.sc, p.def.Confirmation)
	}
	return v
}

// questionStep wraps the escalating-refusal gate.
type questionStep struct {
	def    *greeting.Question
	gate   *gate.Refusal
	sc     *scope
	hearts bool
}

func (q *questionStep) enter(sc *scope) { q.sc = sc }

func (q *questionStep) handle(ev Event) {
	switch ev.Type {
	case EventDecline:
		q.gate.Decline()
	case EventAccept:
		if q.gate.Accept() == gate.AcceptFinal {
			q.hearts = true
			q.sc.after(q.def.AdvanceAfter, func() {
				q.sc.advance(Result{})
			})
		}
	}
}

func (q *questionStep) view() any {
	n := q.gate.Declines()
	item := q.def.Questions[q.gate.Question()]
	own := strings.NewReplacer("{decline}", item.Decline, "{prompt}", item.Prompt)

	v := QuestionView{
		Prompt:          expand(q.sc, own.Replace(gate.Variant(q.def.Prompts, n))),
		AcceptLabel:     expand(q.sc, item.Accept),
		DeclineLabel:    expand(q.sc, own.Replace(gate.Variant(q.def.DeclineLabels, n))),
		Footnote:        expand(q.sc, gate.Variant(q.def.Footnotes, n)),
		AcceptScale:     gate.AcceptScale(n),
		DeclineScale:    gate.DeclineScale(n),
		DeclineOpacity:  gate.DeclineOpacity(n),
		AcceptAlarm:     n > 2,
		DeclineDisabled: !q.gate.CanDecline(),
		Declines:        n,
		Question:        q.gate.Question(),
		Questions:       q.gate.Questions(),
		Hearts:          q.hearts,
	}
	if q.def.GiantAccept && !q.gate.CanDecline() && !q.gate.Done() {
		v.GiantAccept = true
		if q.def.GiantAcceptText != "" {
			v.AcceptLabel = expand(q.sc, q.def.GiantAcceptText)
		}
	}
	return v
}

// finalStep has no gate; it only renders.
type finalStep struct {
	def *greeting.Final
	sc  *scope
}

func (f *finalStep) enter(sc *scope) { f.sc = sc }

func (f *finalStep) handle(Event) {}

func (f *finalStep) view() any {
	return FinalView{
		Heading: expand(f.sc, f.def.Heading),
		Letter:  expand(f.sc, f.def.Letter),
		Columns: galleryColumns(f.def.Gallery, f.def.Columns),
		Hearts:  f.def.Hearts,
	}
}

// galleryColumns deals images round-robin into n columns. Each column lists
// its images twice so a one-column-height scroll loops without a seam.
func galleryColumns(images []string, n int) []Column {
	if n <= 0 {
		n = greeting.DefaultColumns
	}
	cols := make([]Column, n)
	for c := range cols {
		var srcs []string
		for i := c; i < len(images); i += n {
			srcs = append(srcs, images[i])
		}
		tiles := make([]Tile, 0, 2*len(srcs))
		for round := 0; round < 2; round++ {
			for _, src := range srcs {
				i := len(tiles)
				tiles = append(tiles, Tile{Src: src, Height: 400 + ((i+c)%4)*80})
			}
		}
		cols[c] = Column{
			Tiles:    tiles,
			Reverse:  c%2 == 1,
			Seconds:  64 + c*6,
			OffsetPx: c * 150,
		}
	}
	return cols
}
