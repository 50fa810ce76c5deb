package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-tennis-metrics/internal/model"
)

func TestParseFiveSetTiebreakMatch(t *testing.T) {
	ps, err := ParseScore("7-6(5) 1-6 7-6(4) 4-6 13-12(3)")
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeCompleted, ps.Outcome)
	assert.True(t, ps.IsComplete())
	assert.Len(t, ps.CompletedSets(), 5)
	assert.Equal(t, 3, ps.WinnerSets())
	assert.Equal(t, 2, ps.LoserSets())
	assert.Equal(t, 3, ps.TiebreakCount())
	assert.True(t, ps.FinalSetTiebreak())
	assert.False(t, ps.AmbiguousTiebreak)

	for _, i := range []int{0, 2, 4} {
		require.NotNil(t, ps.Sets[i].Tiebreak, "set %d", i+1)
	}
	assert.Nil(t, ps.Sets[1].Tiebreak)
	assert.Nil(t, ps.Sets[3].Tiebreak)
	assert.Equal(t, 7, ps.Sets[0].Tiebreak.SetWinnerPoints)
	assert.Equal(t, 5, ps.Sets[0].Tiebreak.SetLoserPoints)
}

func TestParseRetirementMidSet(t *testing.T) {
	ps, err := ParseScore("6-3 4-6 2-1 RET")
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeRetired, ps.Outcome)
	assert.False(t, ps.IsComplete())
	assert.Equal(t, "RET", ps.Marker)
	require.Len(t, ps.Sets, 3)
	assert.Len(t, ps.CompletedSets(), 2)
	assert.False(t, ps.Sets[2].Complete)
	assert.Equal(t, 0, ps.TiebreakCount())
	assert.False(t, ps.FinalSetTiebreak())
	assert.Equal(t, 12, ps.WinnerGames())
	assert.Equal(t, 10, ps.LoserGames())
}

func TestParseRetirementBeforePlay(t *testing.T) {
	ps, err := ParseScore("RET")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeRetired, ps.Outcome)
	assert.Empty(t, ps.Sets)
}

func TestParseRetirementWhileAhead(t *testing.T) {
	ps, err := ParseScore("4-6 6-7(2) 1-0 RET")
	require.NoError(t, err)
	assert.Equal(t, 0, ps.WinnerSets())
	assert.Equal(t, 2, ps.LoserSets())
}

func TestParseWalkover(t *testing.T) {
	for _, s := range []string{"W/O", "w/o", "WO"} {
		ps, err := ParseScore(s)
		require.NoError(t, err, s)
		assert.Equal(t, model.OutcomeWalkover, ps.Outcome)
		assert.Empty(t, ps.Sets)
	}
}

func TestParseDefaultMarkerWithDot(t *testing.T) {
	ps, err := ParseScore("6-4 3-2 Def.")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeRetired, ps.Outcome)
	assert.Equal(t, "DEF", ps.Marker)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"empty":               "   ",
		"garbage token":       "6-4 six-love",
		"too many sets":       "6-4 4-6 6-4 4-6 6-4 6-4",
		"games out of range":  "6-4 21-19",
		"marker not last":     "6-4 RET 6-2",
		"walkover after sets": "6-4 W/O",
		"tied set":            "6-4 6-6 6-3",
		"no majority":         "6-4 4-6",
		"loser majority":      "4-6 4-6",
		"bad tiebreak":        "6-3(4) 6-4",
	}
	for name, score := range cases {
		t.Run(name, func(t *testing.T) {
			ps, err := ParseScore(score)
			require.Error(t, err)
			assert.Equal(t, model.OutcomeUnparseable, ps.Outcome)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, score, pe.Input)
			assert.ErrorIs(t, err, ErrMalformedScore)
		})
	}
}

func TestParseStrictGameRange(t *testing.T) {
	strict := New(WithMaxSetGames(7))
	_, err := strict.Parse("6-4 9-7")
	assert.Error(t, err)

	_, err = ParseScore("6-4 9-7")
	assert.NoError(t, err)
}

func TestParseDecidingTiebreakAmbiguity(t *testing.T) {
	ps, err := ParseScore("6-4 4-6 6-4 4-6 7-6(5)")
	require.NoError(t, err)
	assert.True(t, ps.AmbiguousTiebreak)
	tb := ps.Sets[4].Tiebreak
	assert.Equal(t, 7, tb.SetWinnerPoints)
	require.NotNil(t, tb.AltSetWinnerPoints)
	assert.Equal(t, 10, *tb.AltSetWinnerPoints)

	ps, err = New(WithDecidingTiebreakTarget(10)).Parse("6-4 4-6 6-4 4-6 7-6(5)")
	require.NoError(t, err)
	assert.False(t, ps.AmbiguousTiebreak)
	assert.Equal(t, 10, ps.Sets[4].Tiebreak.SetWinnerPoints)
	assert.Nil(t, ps.Sets[4].Tiebreak.AltSetWinnerPoints)

	// Extended tiebreak is past either target.
	ps, err = ParseScore("6-4 4-6 6-4 4-6 7-6(9)")
	require.NoError(t, err)
	assert.False(t, ps.AmbiguousTiebreak)
	assert.Equal(t, 11, ps.Sets[4].Tiebreak.SetWinnerPoints)

	// Best of three: the third set decides.
	ps, err = ParseScore("6-4 4-6 7-6(5)")
	require.NoError(t, err)
	assert.True(t, ps.AmbiguousTiebreak)
	require.NotNil(t, ps.Sets[2].Tiebreak.AltSetWinnerPoints)
	assert.Equal(t, 10, *ps.Sets[2].Tiebreak.AltSetWinnerPoints)

	ps, err = New(WithDecidingTiebreakTarget(10)).Parse("6-4 4-6 7-6(5)")
	require.NoError(t, err)
	assert.False(t, ps.AmbiguousTiebreak)
	assert.Equal(t, 10, ps.Sets[2].Tiebreak.Target)
	assert.Equal(t, 10, ps.Sets[2].Tiebreak.SetWinnerPoints)

	// A last-set tiebreak that is not deciding keeps the regular target.
	for _, score := range []string{"6-4 7-6(5)", "6-4 6-4 7-6(5)", "6-4 4-6 6-4 7-6(5)"} {
		ps, err = New(WithDecidingTiebreakTarget(10)).Parse(score)
		require.NoError(t, err, score)
		assert.False(t, ps.AmbiguousTiebreak, score)
		tb := ps.Sets[len(ps.Sets)-1].Tiebreak
		assert.Equal(t, 7, tb.Target, score)
		assert.Nil(t, tb.AltSetWinnerPoints, score)
	}
}

func TestParseSetCountProperty(t *testing.T) {
	scores := []string{
		"6-4 6-4",
		"6-7(3) 7-6(8) 6-0",
		"3-6 6-3 6-7(6) 7-5 10-8",
		"7-5 6-7(11) 6-2 6-4",
	}
	for _, s := range scores {
		ps, err := ParseScore(s)
		require.NoError(t, err, s)
		assert.Equal(t, len(ps.Sets), ps.WinnerSets()+ps.LoserSets(), s)
	}
}

func TestParseIsPure(t *testing.T) {
	a, errA := ParseScore("7-6(5) 1-6 7-6(4) 4-6 13-12(3)")
	b, errB := ParseScore("7-6(5) 1-6 7-6(4) 4-6 13-12(3)")
	assert.Equal(t, errA, errB)
	assert.Equal(t, a, b)
}
