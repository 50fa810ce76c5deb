package enricher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-tennis-metrics/internal/model"
	"github.com/pable/go-tennis-metrics/internal/parser"
	"github.com/pable/go-tennis-metrics/internal/tournament"
)

func rawMatch(tourney, round, score string) model.MatchRaw {
	return model.MatchRaw{
		TourneyName: tourney,
		TourneyDate: 20190701,
		Surface:     model.SurfaceGrass,
		Round:       round,
		BestOf:      model.Ptr(5),
		WinnerID:    "104925",
		WinnerName:  "Novak Djokovic",
		LoserID:     "103819",
		LoserName:   "Roger Federer",
		Score:       score,
		Minutes:     model.Ptr(297),
	}
}

func enrich(t *testing.T, raw model.MatchRaw) model.MatchEnriched {
	t.Helper()
	ps, err := parser.ParseScore(raw.Score)
	return Enrich(raw, ps, err, tournament.New())
}

func TestEnrichFiveSetFinal(t *testing.T) {
	e := enrich(t, rawMatch("Wimbledon", "F", "7-6(5) 1-6 7-6(4) 4-6 13-12(3)"))

	assert.True(t, e.IsComplete)
	assert.True(t, e.IsGrandSlam)
	require.NotNil(t, e.GrandSlamName)
	assert.Equal(t, "Wimbledon", *e.GrandSlamName)
	assert.True(t, e.IsFinal)
	assert.False(t, e.IsSemifinal)
	assert.Equal(t, 2019, e.MatchYear)

	assert.Equal(t, 3, *e.WinnerSets)
	assert.Equal(t, 2, *e.LoserSets)
	assert.Equal(t, 3, *e.TiebreaksCount)
	assert.Equal(t, []int{1, 5, 1, 2, 1}, e.SetMargins)
	assert.InDelta(t, 2.0, *e.AvgSetMargin, 1e-9)
	assert.Equal(t, 0, *e.LeadChanges)
	assert.Equal(t, ComebackNone, *e.ComebackScore)
	assert.True(t, *e.FinalSetTiebreak)
}

func TestEnrichParseFailureLeavesDramaNil(t *testing.T) {
	e := enrich(t, rawMatch("Wimbledon", "SF", "6-4 banana"))

	assert.False(t, e.IsComplete)
	assert.Equal(t, model.OutcomeUnparseable, e.Outcome)
	require.NotNil(t, e.ParseError)
	assert.Nil(t, e.WinnerSets)
	assert.Nil(t, e.AvgSetMargin)
	assert.Nil(t, e.LeadChanges)
	assert.Nil(t, e.ComebackScore)
	assert.Nil(t, e.FinalSetTiebreak)
	assert.True(t, e.IsSemifinal)
}

func TestEnrichWalkover(t *testing.T) {
	e := enrich(t, rawMatch("US Open", "QF", "W/O"))

	assert.False(t, e.IsComplete)
	assert.Equal(t, model.OutcomeWalkover, e.Outcome)
	assert.Nil(t, e.ParseError)
	assert.Equal(t, 0, *e.WinnerSets)
	assert.Nil(t, e.AvgSetMargin)
	assert.Nil(t, e.LeadChanges)
	assert.Nil(t, e.ComebackScore)
	assert.Nil(t, e.FinalSetTiebreak)
	assert.True(t, e.IsQuarterfinal)
}

func TestEnrichRetirement(t *testing.T) {
	raw := rawMatch("Halle", "R32", "6-3 4-6 2-1 RET")
	raw.BestOf = model.Ptr(3)
	e := enrich(t, raw)

	assert.False(t, e.IsComplete)
	assert.False(t, e.IsGrandSlam)
	assert.Nil(t, e.GrandSlamName)
	assert.Equal(t, "Halle", e.TournamentKey)
	assert.Equal(t, []int{3, 2}, e.SetMargins)
	assert.Equal(t, 0, *e.LeadChanges)
	assert.Equal(t, ComebackNone, *e.ComebackScore)
	assert.False(t, *e.FinalSetTiebreak)
}

func TestLeadChanges(t *testing.T) {
	cases := map[string]int{
		"6-4 6-4":                0,
		"4-6 6-3 6-4":            1,
		"6-4 4-6 6-3":            0,
		"4-6 6-4 3-6 6-3 6-4":    1,
		"6-3 3-6 6-3 4-6 7-5":    0,
		"3-6 6-3 6-3 6-7(4) 6-4": 1,
	}
	for score, want := range cases {
		ps, err := parser.ParseScore(score)
		require.NoError(t, err, score)
		assert.Equal(t, want, LeadChanges(ps.CompletedSets()), score)
	}
}

func TestComebackTiers(t *testing.T) {
	cases := []struct {
		score string
		bo    int
		want  int
	}{
		{"6-4 6-4 6-4", 5, ComebackNone},
		{"4-6 6-4 6-4", 3, ComebackDownOneSet},
		{"6-4 3-6 4-6 6-3 6-4", 5, ComebackDownOneSet},
		{"4-6 3-6 6-3 6-4 6-2", 5, ComebackDownZeroTwo},
		{"6-3 4-6 3-6 6-4 6-4", 5, ComebackDownOneSet},
		// Opponent two sets to one up, winner saves match point in a 9-7 tiebreak.
		{"6-3 4-6 3-6 7-6(7) 6-4", 5, ComebackMatchPoint},
		// Match point tier outranks down 0-2.
		{"4-6 4-6 6-3 7-6(8) 6-2", 5, ComebackMatchPoint},
		// Tiebreak without the opponent one point from the set.
		{"4-6 6-3 7-6(3)", 3, ComebackDownOneSet},
		// Final-set tiebreak where the opponent reached six points.
		{"4-6 6-3 7-6(6)", 3, ComebackMatchPoint},
	}
	for _, c := range cases {
		ps, err := parser.ParseScore(c.score)
		require.NoError(t, err, c.score)
		bo := c.bo
		got := ComebackScore(ps.CompletedSets(), SetsToWin(&bo, ps))
		assert.Equal(t, c.want, got, c.score)
	}
}

func TestComebackUsesDecidingTiebreakTarget(t *testing.T) {
	long := parser.New(parser.WithDecidingTiebreakTarget(10))
	bo := 3

	// 8 points is short of match point in a 10 point tiebreak.
	ps, err := long.Parse("4-6 6-3 7-6(8)")
	require.NoError(t, err)
	assert.Equal(t, ComebackDownOneSet, ComebackScore(ps.CompletedSets(), SetsToWin(&bo, ps)))

	ps, err = long.Parse("4-6 6-3 7-6(9)")
	require.NoError(t, err)
	assert.Equal(t, ComebackMatchPoint, ComebackScore(ps.CompletedSets(), SetsToWin(&bo, ps)))
}

func TestComebackIsOrderSensitive(t *testing.T) {
	a, _ := parser.ParseScore("6-4 6-4 4-6 4-6 6-4")
	b, _ := parser.ParseScore("4-6 4-6 6-4 6-4 6-4")
	assert.Equal(t, ComebackNone, ComebackScore(a.CompletedSets(), 3))
	assert.Equal(t, ComebackDownZeroTwo, ComebackScore(b.CompletedSets(), 3))
}

func TestSetsToWinInference(t *testing.T) {
	ps, _ := parser.ParseScore("6-4 6-4 6-4")
	assert.Equal(t, 3, SetsToWin(nil, ps))
	ps, _ = parser.ParseScore("6-4 6-4")
	assert.Equal(t, 2, SetsToWin(nil, ps))
	ps, _ = parser.ParseScore("6-4 4-6 6-4 2-2 RET")
	assert.Equal(t, 3, SetsToWin(nil, ps))
}

func TestBreakPointRatio(t *testing.T) {
	raw := rawMatch("Wimbledon", "F", "6-4 6-4 6-4")
	raw.WBpSaved, raw.WBpFaced = model.Ptr(3), model.Ptr(4)
	raw.LBpSaved, raw.LBpFaced = model.Ptr(5), model.Ptr(8)
	e := enrich(t, raw)
	require.NotNil(t, e.BPSavedRatio)
	assert.InDelta(t, 8.0/12.0, *e.BPSavedRatio, 1e-4)

	raw.LBpFaced = nil
	e = enrich(t, raw)
	assert.Nil(t, e.BPSavedRatio)
}

func TestWithCareerContext(t *testing.T) {
	m := enrich(t, rawMatch("Wimbledon", "F", "6-4 6-4 6-4"))
	careers := []model.PlayerCareerMetrics{
		{PlayerID: "104925", TotalMatches: 1200, GSTitles: 24, HasGSTitle: true, PeakRanking: model.Ptr(1)},
	}
	in := []model.MatchEnriched{m}
	out := WithCareerContext(in, careers)

	require.Len(t, out, 1)
	assert.Equal(t, 1200, *out[0].WinnerCareerMatches)
	assert.Equal(t, 24, *out[0].WinnerGSTitles)
	assert.True(t, *out[0].WinnerHasGSTitle)
	assert.Equal(t, 1, *out[0].WinnerPeakRanking)
	assert.Nil(t, out[0].LoserCareerMatches)

	// Input is not modified.
	assert.Nil(t, in[0].WinnerCareerMatches)
}
