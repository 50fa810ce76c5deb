package h2h

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-tennis-metrics/internal/model"
)

func meeting(date int, tourney string, surface model.Surface, winner, loser string) model.MatchEnriched {
	ids := map[string]string{"Roger Federer": "103819", "Rafael Nadal": "104745", "Novak Djokovic": "104925"}
	return model.MatchEnriched{
		MatchRaw: model.MatchRaw{
			TourneyName: tourney,
			TourneyDate: date,
			Surface:     surface,
			WinnerID:    ids[winner],
			WinnerName:  winner,
			LoserID:     ids[loser],
			LoserName:   loser,
		},
		TournamentKey: tourney,
	}
}

// rivalry builds a 40-match series: Federer wins 16, Nadal 24, with 13 clay
// meetings split 2-11.
func rivalry() []model.MatchEnriched {
	const fed, rafa = "Roger Federer", "Rafael Nadal"
	var ms []model.MatchEnriched
	date := 20040328
	add := func(n int, tourney string, s model.Surface, w, l string) {
		for i := 0; i < n; i++ {
			ms = append(ms, meeting(date, tourney, s, w, l))
			date += 100
		}
	}
	add(2, "Hamburg", model.SurfaceClay, fed, rafa)
	add(11, "Roland Garros", model.SurfaceClay, rafa, fed)
	add(3, "Wimbledon", model.SurfaceGrass, fed, rafa)
	add(1, "Wimbledon", model.SurfaceGrass, rafa, fed)
	add(10, "Tour Finals", model.SurfaceHard, fed, rafa)
	add(11, "Miami", model.SurfaceHard, rafa, fed)
	add(1, "Exhibition", model.Surface(""), fed, rafa)
	add(1, "Exhibition", model.Surface(""), rafa, fed)
	return ms
}

func TestKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, "Rafael Nadal|Roger Federer", Key("Roger Federer", "Rafael Nadal"))
	assert.Equal(t, Key("a", "B"), Key("B", "a"))
	// Byte-wise: upper case sorts before lower case.
	assert.Equal(t, "B|a", Key("a", "B"))
}

func TestRivalrySplit(t *testing.T) {
	mx := Build(rivalry())
	require.Equal(t, 1, mx.Len())

	rec, ok := mx.Lookup("Roger Federer", "Rafael Nadal")
	require.True(t, ok)
	assert.Equal(t, "Rafael Nadal", rec.Player1)
	assert.Equal(t, "104745", rec.Player1ID)
	assert.Equal(t, "Roger Federer", rec.Player2)

	assert.Equal(t, 40, rec.TotalMatches)
	assert.Equal(t, 24, rec.Player1Wins)
	assert.Equal(t, 16, rec.Player2Wins)

	clay := rec.Surfaces["Clay"]
	assert.Equal(t, 13, clay.Total)
	assert.Equal(t, 11, clay.P1Wins)
	assert.Equal(t, 2, clay.P2Wins)
	assert.Equal(t, 2, rec.Surfaces["Unknown"].Total)

	assert.Equal(t, 20040328, rec.FirstMeeting)
	assert.Equal(t, 20040328+39*100, rec.LastMeeting)
	assert.True(t, Check(rec))
}

func TestLookupBothOrders(t *testing.T) {
	mx := Build(rivalry())
	ab, ok1 := mx.Lookup("Roger Federer", "Rafael Nadal")
	ba, ok2 := mx.Lookup("Rafael Nadal", "Roger Federer")
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, ab, ba)

	_, ok := mx.Lookup("Roger Federer", "Novak Djokovic")
	assert.False(t, ok)
}

func TestBreakdownsSumToTotals(t *testing.T) {
	ms := rivalry()
	ms = append(ms,
		meeting(20110101, "Wimbledon", model.SurfaceGrass, "Novak Djokovic", "Rafael Nadal"),
		meeting(20120101, "Australian Open", model.SurfaceHard, "Novak Djokovic", "Rafael Nadal"),
		meeting(20120601, "Roland Garros", model.SurfaceClay, "Rafael Nadal", "Novak Djokovic"),
		meeting(20120901, "US Open", model.SurfaceHard, "Roger Federer", "Novak Djokovic"),
	)
	recs := Build(ms).Records()
	require.Len(t, recs, 3)
	for i, rec := range recs {
		assert.True(t, Check(rec), rec.Key)
		if i > 0 {
			assert.Less(t, recs[i-1].Key, rec.Key)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a := Build(rivalry()).Records()
	b := Build(rivalry()).Records()
	assert.Equal(t, a, b)
}

func TestCheckRejectsInconsistentSplit(t *testing.T) {
	rec := model.HeadToHeadRecord{
		TotalMatches: 2, Player1Wins: 1, Player2Wins: 1,
		Surfaces:    map[string]model.SplitRecord{"Hard": {Total: 1, P1Wins: 1}},
		Tournaments: map[string]model.SplitRecord{"Doha": {Total: 2, P1Wins: 1, P2Wins: 1}},
	}
	assert.False(t, Check(rec))
}
