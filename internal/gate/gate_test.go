package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "stinky piggy", Normalize("  Stinky PIGGY \n"))
	// Composed and decomposed forms compare equal.
	assert.Equal(t, Normalize("caf\u00e9"), Normalize("Cafe\u0301"))
	assert.Equal(t, "臭猪猪", Normalize(" 臭猪猪 "))
	// Lowercasing only: no full case folding.
	assert.Equal(t, "straße", Normalize("STRAßE"))
	assert.NotEqual(t, Normalize("straße"), Normalize("STRASSE"))
}

func TestMatchCorrectAnswerAlwaysAdvances(t *testing.T) {
	for _, input := range []string{"Piggy", "piggy", "  PIGGY  ", "\tpiGGy\n"} {
		m := NewMatch("Piggy", []string{"h1"})
		assert.Equal(t, MatchCorrect, m.Submit(input), "input %q", input)
		assert.Zero(t, m.Attempts())
	}
}

func TestMatchWrongAnswerCountsOnce(t *testing.T) {
	m := NewMatch("piggy", []string{"h0", "h1", "h2"})

	for i, input := range []string{"pig", "piggy!", "p iggy", "bear"} {
		require.Equal(t, MatchWrong, m.Submit(input))
		assert.Equal(t, i+1, m.Attempts())
	}
}

func TestMatchEmptyDoesNotCount(t *testing.T) {
	m := NewMatch("piggy", []string{"h0"})

	assert.Equal(t, MatchEmpty, m.Submit(""))
	assert.Equal(t, MatchEmpty, m.Submit("   "))
	assert.Zero(t, m.Attempts())
}

func TestMatchHintEscalation(t *testing.T) {
	hints := []string{"h0", "h1", "h2"}
	m := NewMatch("piggy", hints)

	assert.Equal(t, "h0", m.Hint())
	assert.False(t, m.OnLastHint())

	m.Submit("x")
	assert.Equal(t, "h1", m.Hint())
	assert.False(t, m.OnLastHint())

	m.Submit("x")
	assert.Equal(t, "h2", m.Hint())
	assert.True(t, m.OnLastHint())

	// Exhausted list keeps reusing the last hint.
	m.Submit("x")
	m.Submit("x")
	assert.Equal(t, "h2", m.Hint())
	assert.Equal(t, 3, m.HintCount())
}

func TestVariant(t *testing.T) {
	list := []string{"a", "b", "c"}
	assert.Equal(t, "a", Variant(list, 0))
	assert.Equal(t, "b", Variant(list, 1))
	assert.Equal(t, "c", Variant(list, 2))
	assert.Equal(t, "c", Variant(list, 10))
	assert.Equal(t, "a", Variant(list, -1))
	assert.Equal(t, "", Variant([]string(nil), 3))
}

func reasons() []Choice {
	return []Choice{
		{ID: "pretty", Correct: true},
		{ID: "funny", Correct: true},
		{ID: "kind", Correct: true},
		{ID: "smelly"},
		{ID: "lazy"},
	}
}

func TestSelectExactSetCompletes(t *testing.T) {
	s := NewSelect(reasons(), false)

	assert.Equal(t, ToggleSelected, s.Toggle("pretty"))
	assert.Equal(t, ToggleSelected, s.Toggle("funny"))
	assert.Equal(t, ToggleSelected, s.Toggle("kind"))

	assert.Equal(t, SubmitComplete, s.Submit())
	assert.True(t, s.Complete())

	// Idempotent afterwards.
	assert.Equal(t, SubmitIgnored, s.Submit())
	assert.Equal(t, ToggleIgnored, s.Toggle("pretty"))
	assert.True(t, s.Selected("pretty"))
}

func TestSelectSubsetIsIncomplete(t *testing.T) {
	s := NewSelect(reasons(), false)
	s.Toggle("pretty")
	s.Toggle("funny")

	assert.Equal(t, SubmitIncomplete, s.Submit())
	assert.False(t, s.Complete())
	assert.True(t, s.Submitted())
	assert.Equal(t, 2, s.CorrectSelected())
	assert.Equal(t, 3, s.CorrectTotal())
}

func TestSelectSupersetIsWrong(t *testing.T) {
	s := NewSelect(reasons(), false)
	for _, id := range []string{"pretty", "funny", "kind"} {
		s.Toggle(id)
	}
	assert.Equal(t, ToggleSelectedWrong, s.Toggle("smelly"))

	assert.Equal(t, SubmitWrong, s.Submit())
	assert.False(t, s.Complete())

	// Dropping the wrong option fixes it.
	assert.Equal(t, ToggleDeselected, s.Toggle("smelly"))
	assert.Equal(t, SubmitComplete, s.Submit())
}

func TestSelectWrongOnlyIsWrong(t *testing.T) {
	s := NewSelect(reasons(), false)
	s.Toggle("lazy")
	assert.Equal(t, SubmitWrong, s.Submit())
}

func TestSelectRemoveMode(t *testing.T) {
	s := NewSelect(reasons(), true)

	assert.Equal(t, ToggleRemoved, s.Toggle("smelly"))
	assert.True(t, s.Removed("smelly"))
	assert.False(t, s.Selected("smelly"))
	assert.Equal(t, ToggleIgnored, s.Toggle("smelly"))

	for _, id := range []string{"pretty", "funny", "kind"} {
		s.Toggle(id)
	}
	assert.Equal(t, SubmitComplete, s.Submit())
}

func TestSelectUnknownOption(t *testing.T) {
	s := NewSelect(reasons(), false)
	assert.Equal(t, ToggleIgnored, s.Toggle("nope"))
}

func TestPick(t *testing.T) {
	p := NewPick([]Choice{{ID: "you", Correct: true}, {ID: "duck"}, {ID: "vader"}})

	assert.Equal(t, PickWrong, p.Choose("duck"))
	assert.True(t, p.Wrong("duck"))
	assert.Equal(t, PickWrong, p.Choose("duck"))
	assert.Equal(t, PickIgnored, p.Choose("ghost"))
	assert.Empty(t, p.Chosen())

	assert.Equal(t, PickCorrect, p.Choose("you"))
	assert.Equal(t, "you", p.Chosen())
	assert.Equal(t, PickIgnored, p.Choose("you"))
	assert.Equal(t, PickIgnored, p.Choose("vader"))
}

func TestRefusalDeclineSelectsVariant(t *testing.T) {
	labels := []string{"No", "No?", "Really?", "Are you sure?", "Pleaaase~", "🥺"}
	r := NewRefusal(1, 6)

	assert.Equal(t, "No", Variant(labels, r.Declines()))
	for n := 1; n <= 6; n++ {
		require.True(t, r.Decline())
		assert.Equal(t, n, r.Declines())
		assert.Equal(t, labels[min(n, len(labels)-1)], Variant(labels, r.Declines()))
	}
	assert.Equal(t, "Really?", Variant(labels, 2))
	assert.Equal(t, "Are you sure?", Variant(labels, 3))
}

func TestRefusalCapsDeclines(t *testing.T) {
	r := NewRefusal(1, 3)
	for i := 0; i < 3; i++ {
		require.True(t, r.Decline())
	}
	assert.False(t, r.CanDecline())
	assert.False(t, r.Decline())
	assert.Equal(t, 3, r.Declines())
}

func TestRefusalAcceptAlwaysAdvances(t *testing.T) {
	for declines := 0; declines <= 8; declines++ {
		r := NewRefusal(1, 6)
		for i := 0; i < declines; i++ {
			r.Decline()
		}
		assert.Equal(t, AcceptFinal, r.Accept(), "after %d declines", declines)
		assert.True(t, r.Done())
		assert.Equal(t, AcceptIgnored, r.Accept())
		assert.False(t, r.Decline())
	}
}

func TestRefusalMultipleQuestions(t *testing.T) {
	r := NewRefusal(3, 6)

	r.Decline()
	r.Decline()
	assert.Equal(t, AcceptNext, r.Accept())
	assert.Equal(t, 1, r.Question())
	assert.Zero(t, r.Declines())

	assert.Equal(t, AcceptNext, r.Accept())
	assert.Equal(t, AcceptFinal, r.Accept())
	assert.Equal(t, 3, r.Questions())
}

func TestButtonScaling(t *testing.T) {
	assert.InDelta(t, 1.0, AcceptScale(0), 1e-9)
	assert.InDelta(t, 1.9, AcceptScale(3), 1e-9)
	assert.InDelta(t, 0.7, DeclineScale(3), 1e-9)
	assert.InDelta(t, 0.5, DeclineScale(9), 1e-9)
	assert.InDelta(t, 0.4, DeclineOpacity(3), 1e-9)
	assert.InDelta(t, 0.3, DeclineOpacity(6), 1e-9)
}
