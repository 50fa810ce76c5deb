package aggregator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-tennis-metrics/internal/enricher"
	"github.com/pable/go-tennis-metrics/internal/model"
	"github.com/pable/go-tennis-metrics/internal/parser"
	"github.com/pable/go-tennis-metrics/internal/tournament"
)

var norm = tournament.New()

// match builds an enriched match between winner and loser ids.
func match(row int, date int, tourney, round string, surface model.Surface, winner, loser string, wRank, lRank *int, minutes *int) model.MatchEnriched {
	raw := model.MatchRaw{
		Row:         row,
		TourneyName: tourney,
		TourneyDate: date,
		Surface:     surface,
		Round:       round,
		WinnerID:    winner,
		WinnerName:  winner,
		WinnerRank:  wRank,
		WinnerAge:   model.Ptr(22.5),
		LoserID:     loser,
		LoserName:   loser,
		LoserRank:   lRank,
		Score:       "6-4 6-4",
		Minutes:     minutes,
	}
	ps, err := parser.ParseScore(raw.Score)
	return enricher.Enrich(raw, ps, err, norm)
}

func rank(r int) *int { return model.Ptr(r) }

var players = []model.PlayerIdentity{
	{ID: "a", Name: "Alpha", Country: "SUI"},
	{ID: "b", Name: "Bravo", Country: "ESP"},
	{ID: "c", Name: "Charlie"},
	{ID: "z", Name: "Zulu"},
}

func careersByID(t *testing.T, cs []model.PlayerCareerMetrics) map[string]model.PlayerCareerMetrics {
	t.Helper()
	out := make(map[string]model.PlayerCareerMetrics, len(cs))
	for _, c := range cs {
		require.NoError(t, Check(c))
		out[c.PlayerID] = c
	}
	return out
}

func TestZeroMatchPlayer(t *testing.T) {
	cs, err := AggregateCareers(players, nil)
	require.NoError(t, err)
	require.Len(t, cs, len(players))

	z := careersByID(t, cs)["z"]
	assert.Equal(t, 0, z.TotalMatches)
	assert.Nil(t, z.WinPct)
	assert.Nil(t, z.FirstMatchDate)
	assert.Nil(t, z.CareerSpanYears)
	assert.Nil(t, z.FirstGSTitleDate)
	assert.Nil(t, z.MatchesBeforeFirstGS)
	assert.Nil(t, z.WinsBeforeFirstGS)
	assert.Nil(t, z.WinPctBeforeFirstGS)
	assert.Nil(t, z.YearsToFirstGS)
	assert.Nil(t, z.AvgMatchDuration)
	assert.False(t, z.HasGSTitle)
}

func TestCareerBreakthrough(t *testing.T) {
	matches := []model.MatchEnriched{
		// Deliberately out of order: the title run comes first in the input.
		match(5, 20030623, "Wimbledon", "F", model.SurfaceGrass, "a", "c", rank(5), rank(48), model.Ptr(140)),
		match(4, 20030623, "Wimbledon", "SF", model.SurfaceGrass, "a", "b", rank(5), rank(3), model.Ptr(150)),
		match(3, 20030623, "Wimbledon", "QF", model.SurfaceGrass, "a", "c", rank(5), rank(40), nil),
		match(0, 20010115, "Sydney", "R32", model.SurfaceHard, "b", "a", rank(12), rank(60), model.Ptr(90)),
		match(1, 20020520, "Roland Garros", "R128", model.SurfaceClay, "a", "c", rank(30), rank(70), model.Ptr(110)),
		match(2, 20020520, "Roland Garros", "R64", model.SurfaceClay, "b", "a", rank(8), rank(30), model.Ptr(100)),
		match(6, 20040112, "Australian Open", "F", model.SurfaceHard, "b", "a", rank(2), rank(1), nil),
		match(7, 20040301, "Exhibition", "RR", model.SurfaceUnknown, "a", "b", rank(1), nil, nil),
	}

	cs, err := AggregateCareers(players, matches)
	require.NoError(t, err)
	a := careersByID(t, cs)["a"]

	assert.Equal(t, 8, a.TotalMatches)
	assert.Equal(t, 5, a.TotalWins)
	assert.Equal(t, 3, a.TotalLosses)
	assert.Equal(t, 62.5, *a.WinPct)
	assert.Equal(t, 20010115, *a.FirstMatchDate)
	assert.Equal(t, 20040301, *a.LastMatchDate)
	assert.Equal(t, 3, *a.CareerSpanYears)

	assert.Equal(t, 6, a.GSMatches)
	assert.Equal(t, 4, a.GSWins)
	assert.Equal(t, 2, a.GSLosses)
	assert.Equal(t, 1, a.GSTitles)
	assert.Equal(t, 2, a.GSFinals)
	assert.Equal(t, 1, a.GSSemifinals)
	assert.Equal(t, 1, a.GSQuarterfinals)

	assert.True(t, a.HasGSTitle)
	assert.Equal(t, 20030623, *a.FirstGSTitleDate)
	assert.Equal(t, 2003, *a.FirstGSTitleYear)
	assert.Equal(t, "Wimbledon", *a.FirstGSTitleName)
	assert.Equal(t, 22.5, *a.FirstGSTitleAge)
	// Only the three matches dated strictly before the title tournament.
	assert.Equal(t, 3, *a.MatchesBeforeFirstGS)
	assert.Equal(t, 1, *a.WinsBeforeFirstGS)
	assert.Equal(t, 33.33, *a.WinPctBeforeFirstGS)
	assert.Equal(t, 2, *a.YearsToFirstGS)
	assert.Equal(t, 30, *a.PeakRankingBeforeGS)

	assert.Equal(t, 1, *a.PeakRanking)
	assert.Equal(t, 20040112, *a.PeakRankingDate)
	assert.True(t, a.WasTop5)
	assert.True(t, a.WasTop10)

	assert.Equal(t, 2, a.HardMatches)
	assert.Equal(t, 0, a.HardWins)
	assert.Equal(t, 0.0, *a.HardWinPct)
	assert.Equal(t, 2, a.ClayMatches)
	assert.Equal(t, 3, a.GrassMatches)
	assert.Equal(t, 100.0, *a.GrassWinPct)
	assert.Nil(t, a.CarpetWinPct)
	assert.Equal(t, 1, a.UnknownSurfaceMatches)

	// Opponent rank at match time: b was #3 at Wimbledon, #2 in Melbourne.
	assert.Equal(t, 2, a.Top5Matches)
	assert.Equal(t, 1, a.Top5Wins)
	assert.Equal(t, 50.0, *a.Top5WinPct)
	assert.Equal(t, 3, a.Top10Matches)
	assert.Equal(t, 2, a.UniqueOpponents)

	assert.Equal(t, 5, a.MatchesWithDuration)
	assert.Equal(t, 590, a.TotalMatchMinutes)
	assert.Equal(t, 118.0, *a.AvgMatchDuration)

	c := careersByID(t, cs)["c"]
	assert.Equal(t, "", c.Country)
	assert.False(t, c.HasGSTitle)
	assert.Nil(t, c.FirstGSTitleDate)
	assert.Nil(t, c.PeakRankingBeforeGS)
}

func TestOutputOrderedByName(t *testing.T) {
	cs, err := AggregateCareers([]model.PlayerIdentity{
		{ID: "2", Name: "Zed"},
		{ID: "9", Name: "Amy"},
		{ID: "1", Name: "Amy"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "1", cs[0].PlayerID)
	assert.Equal(t, "9", cs[1].PlayerID)
	assert.Equal(t, "2", cs[2].PlayerID)
}

func TestUnknownPlayerFails(t *testing.T) {
	matches := []model.MatchEnriched{
		match(0, 20200101, "Doha", "F", model.SurfaceHard, "a", "ghost", nil, nil, nil),
	}
	_, err := AggregateCareers(players, matches)
	assert.ErrorContains(t, err, "ghost")
}

func TestDuplicatePlayerFails(t *testing.T) {
	_, err := AggregateCareers([]model.PlayerIdentity{{ID: "a", Name: "A"}, {ID: "a", Name: "A2"}}, nil)
	assert.Error(t, err)
}

func TestShardingDoesNotChangeOutput(t *testing.T) {
	var ps []model.PlayerIdentity
	for i := 0; i < 40; i++ {
		ps = append(ps, model.PlayerIdentity{ID: fmt.Sprintf("p%02d", i), Name: fmt.Sprintf("Player %02d", i)})
	}
	surfaces := []model.Surface{model.SurfaceHard, model.SurfaceClay, model.SurfaceGrass, model.SurfaceCarpet, model.SurfaceUnknown}
	tourneys := []string{"US Open", "Rome", "Wimbledon", "Basel"}
	rounds := []string{"R32", "QF", "SF", "F"}
	var ms []model.MatchEnriched
	for i := 0; i < 600; i++ {
		w := ps[(i*7)%len(ps)].ID
		l := ps[(i*13+1)%len(ps)].ID
		if w == l {
			continue
		}
		ms = append(ms, match(i, 19900101+(i%30)*10000, tourneys[i%4], rounds[(i/4)%4], surfaces[i%5], w, l, rank(1+i%50), rank(1+(i*3)%90), model.Ptr(60+i%120)))
	}

	single, err := AggregateCareers(ps, ms)
	require.NoError(t, err)
	for _, n := range []int{2, 4, 8, 16} {
		sharded, err := AggregateCareers(ps, ms, WithWorkers(n))
		require.NoError(t, err)
		assert.Equal(t, single, sharded, "workers=%d", n)
	}
	for _, c := range single {
		assert.NoError(t, Check(c))
	}
}

func TestCheckDetectsBrokenRow(t *testing.T) {
	bad := model.PlayerCareerMetrics{PlayerID: "x", TotalMatches: 3, TotalWins: 1, TotalLosses: 1}
	assert.Error(t, Check(bad))
}
