package index

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/pable/go-tennis-metrics/internal/enricher"
	"github.com/pable/go-tennis-metrics/internal/model"
	"github.com/pable/go-tennis-metrics/internal/parser"
	"github.com/pable/go-tennis-metrics/internal/tournament"
)

var norm = tournament.New()

type matchFixture struct {
	tourney   string
	round     string
	date      int
	score     string
	minutes   *int
	winner    string
	loser     string
	loserRank *int
}

func build(s matchFixture) model.MatchEnriched {
	raw := model.MatchRaw{
		TourneyName: s.tourney,
		TourneyDate: s.date,
		Surface:     model.SurfaceHard,
		Round:       s.round,
		BestOf:      model.Ptr(5),
		WinnerID:    "id-" + s.winner,
		WinnerName:  s.winner,
		LoserID:     "id-" + s.loser,
		LoserName:   s.loser,
		LoserRank:   s.loserRank,
		Score:       s.score,
		Minutes:     s.minutes,
	}
	ps, err := parser.ParseScore(raw.Score)
	return enricher.Enrich(raw, ps, err, norm)
}

const (
	straightSets = "6-4 6-4 6-4"
	allTiebreaks = "7-6(5) 6-7(5) 7-6(5) 6-7(5) 7-6(5)"
	epicFinal    = "7-6(5) 1-6 7-6(4) 4-6 13-12(3)"
)

func TestRankNailbiters(t *testing.T) {
	Convey("Given Grand Slam matches in and out of scope", t, func() {
		matches := []model.MatchEnriched{
			build(matchFixture{tourney: "Wimbledon", round: "F", date: 20190701, score: epicFinal, winner: "Djokovic", loser: "Federer"}),
			build(matchFixture{tourney: "Australian Open", round: "SF", date: 20120116, score: straightSets, winner: "Nadal", loser: "Federer"}),
			build(matchFixture{tourney: "Wimbledon", round: "QF", date: 20190701, score: epicFinal, winner: "Federer", loser: "Nishikori"}),
			build(matchFixture{tourney: "Halle", round: "F", date: 20190617, score: epicFinal, winner: "Federer", loser: "Goffin"}),
			build(matchFixture{tourney: "US Open", round: "F", date: 20190826, score: "6-3 2-1 RET", winner: "Nadal", loser: "Medvedev"}),
		}

		Convey("When ranking them", func() {
			out, err := RankNailbiters(matches)
			So(err, ShouldBeNil)

			Convey("Then only completed slam finals and semifinals are scored", func() {
				So(out, ShouldHaveLength, 2)
				So(out[0].Round, ShouldEqual, "F")
				So(out[0].GrandSlam, ShouldEqual, "Wimbledon")
				So(out[1].GrandSlam, ShouldEqual, "Australian Open")
			})

			Convey("And every score is in [0,1] with a matching x100 value", func() {
				for _, e := range out {
					So(e.NBI, ShouldBeBetweenOrEqual, 0, 1)
					So(e.NBI100, ShouldAlmostEqual, e.NBI*100, 0.01)
					So(e.WeightsVersion, ShouldEqual, "nbi-v1")
				}
			})

			Convey("And ranks start at one", func() {
				So(out[0].Rank, ShouldEqual, 1)
				So(out[1].Rank, ShouldEqual, 2)
			})
		})

		Convey("When a minimum year excludes older matches", func() {
			out, err := RankNailbiters(matches, WithMinYear(2015))
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 1)
			So(out[0].Year, ShouldEqual, 2019)
		})
	})

	Convey("Given a single candidate", t, func() {
		matches := []model.MatchEnriched{
			build(matchFixture{tourney: "Wimbledon", round: "F", date: 20190701, score: epicFinal, winner: "Djokovic", loser: "Federer"}),
		}

		Convey("Then every min-max column is constant and normalizes to zero", func() {
			out, err := RankNailbiters(matches)
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 1)
			e := out[0]
			So(e.Normalized.SetCloseness, ShouldEqual, 0)
			So(e.Normalized.Tiebreaks, ShouldEqual, 0)
			So(e.Normalized.FinalSetTiebreak, ShouldEqual, 1)
			So(e.NBI, ShouldAlmostEqual, 0.06, 1e-9)
			So(e.DramaTags, ShouldResemble, []string{"tiebreaks", "final set tiebreak"})
		})
	})

	Convey("Given two identical matches and a closer one", t, func() {
		matches := []model.MatchEnriched{
			build(matchFixture{tourney: "US Open", round: "SF", date: 20010827, score: straightSets, winner: "A", loser: "B"}),
			build(matchFixture{tourney: "US Open", round: "SF", date: 20000828, score: straightSets, winner: "C", loser: "D"}),
			build(matchFixture{tourney: "US Open", round: "F", date: 20020826, score: allTiebreaks, winner: "E", loser: "F"}),
		}

		Convey("Then the closer match leads and ties go to the earlier date", func() {
			out, err := RankNailbiters(matches)
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 3)

			So(out[0].Winner, ShouldEqual, "E")
			So(out[0].NBI, ShouldAlmostEqual, 0.43, 1e-9)
			So(out[0].Weighted.SetCloseness, ShouldAlmostEqual, 0.25, 1e-9)
			So(out[0].Weighted.Tiebreaks, ShouldAlmostEqual, 0.12, 1e-9)

			So(out[1].NBI, ShouldEqual, 0)
			So(out[1].TourneyDate, ShouldEqual, 20000828)
			So(out[2].TourneyDate, ShouldEqual, 20010827)
			So(out[2].DramaTags, ShouldResemble, []string{"standard"})
		})

		Convey("Then repeated runs give identical output", func() {
			a, _ := RankNailbiters(matches)
			b, _ := RankNailbiters(matches)
			So(a, ShouldResemble, b)
		})
	})

	Convey("Given fixed normalization", t, func() {
		matches := []model.MatchEnriched{
			build(matchFixture{tourney: "Wimbledon", round: "SF", date: 20080623, score: straightSets, minutes: model.Ptr(150), winner: "A", loser: "B"}),
		}

		Convey("Then scores are measured against the configured scales", func() {
			out, err := RankNailbiters(matches, WithNormalization(NormalizeFixed, DefaultFixedScales()))
			So(err, ShouldBeNil)
			e := out[0]
			So(e.Normalized.SetCloseness, ShouldAlmostEqual, 0.6667, 1e-4)
			So(*e.MinutesPerSet, ShouldEqual, 50)
			So(e.Normalized.Duration, ShouldAlmostEqual, 0.6667, 1e-4)
			So(e.NBI, ShouldAlmostEqual, 0.2333, 1e-4)
		})

		Convey("Then a zero scale is rejected", func() {
			_, err := RankNailbiters(matches, WithNormalization(NormalizeFixed, FixedScales{}))
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given weights that do not sum to one", t, func() {
		w := DefaultNBIWeights()
		w.Comeback = 0.5

		Convey("Then ranking fails with ErrInvalidWeights", func() {
			_, err := RankNailbiters(nil, WithNBIWeights(w))
			So(errors.Is(err, ErrInvalidWeights), ShouldBeTrue)
		})
	})
}

func TestNBIWeightsValidate(t *testing.T) {
	Convey("The default weight sets are valid", t, func() {
		So(DefaultNBIWeights().Validate(), ShouldBeNil)
		So(DefaultGSDIWeights().Validate(), ShouldBeNil)
	})

	Convey("A negative weight is rejected even when the sum is one", t, func() {
		w := DefaultNBIWeights()
		w.SetCloseness += 0.1
		w.FinalSetTiebreak -= 0.1
		So(errors.Is(w.Validate(), ErrInvalidWeights), ShouldBeTrue)
	})

	Convey("A missing version is rejected", t, func() {
		w := DefaultNBIWeights()
		w.Version = ""
		So(w.Validate(), ShouldNotBeNil)
	})
}
