package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pable/go-tennis-metrics/internal/model"
	"github.com/pable/go-tennis-metrics/internal/pipeline"
)

func TestWilsonCI(t *testing.T) {
	lo, hi := wilsonCI(0, 0)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)

	lo, hi = wilsonCI(50, 100)
	assert.InDelta(t, 0.404, lo, 0.001)
	assert.InDelta(t, 0.596, hi, 0.001)
}

func TestDate(t *testing.T) {
	assert.Equal(t, "2008-07-06", date(20080706))
	assert.Equal(t, missing, date(0))
	assert.Equal(t, missing, datePtr(nil))
}

func TestPlayerCardRendersNulls(t *testing.T) {
	var buf bytes.Buffer
	PrintPlayerCard(&buf, model.PlayerCareerMetrics{PlayerID: "1", PlayerName: "Nobody"})
	out := buf.String()
	assert.Contains(t, out, "Nobody")
	assert.Contains(t, out, "No major title.")
	assert.Contains(t, out, missing)
}

func TestPlayerCardWithTitle(t *testing.T) {
	var buf bytes.Buffer
	PrintPlayerCard(&buf, model.PlayerCareerMetrics{
		PlayerID:             "104745",
		PlayerName:           "Rafael Nadal",
		Country:              "ESP",
		TotalMatches:         3,
		TotalWins:            2,
		TotalLosses:          1,
		WinPct:               model.Ptr(66.67),
		HasGSTitle:           true,
		FirstGSTitleName:     model.Ptr("Roland Garros"),
		FirstGSTitleYear:     model.Ptr(2005),
		FirstGSTitleDate:     model.Ptr(20050523),
		MatchesBeforeFirstGS: model.Ptr(40),
	})
	out := buf.String()
	assert.Contains(t, out, "First major: Roland Garros 2005 (2005-05-23)")
	assert.Contains(t, out, "66.7%")
}

func TestRunSummaryAndIssues(t *testing.T) {
	var buf bytes.Buffer
	d := pipeline.Diagnostics{
		RowsTotal: 3, RowsValid: 2, RowsInvalid: 1, Walkovers: 1,
		Issues: []pipeline.Issue{
			{Row: 1, Kind: pipeline.IssueWalkover},
			{Row: 2, Kind: pipeline.IssueInvalidRow, Detail: "row 2: tourney_date: required"},
		},
	}
	PrintRunSummary(&buf, d, 4, 2, 1, 0)
	PrintIssues(&buf, d.Issues, 1)
	out := buf.String()
	assert.Contains(t, out, "Rows: 3 total  |  2 valid  |  1 invalid")
	assert.Contains(t, out, "(1 more issues not shown)")
}

func TestHeadToHeadSplitsOrdered(t *testing.T) {
	var buf bytes.Buffer
	PrintHeadToHead(&buf, model.HeadToHeadRecord{
		Player1: "Rafael Nadal", Player2: "Roger Federer",
		TotalMatches: 3, Player1Wins: 2, Player2Wins: 1,
		FirstMeeting: 20060529, LastMeeting: 20080623,
		Surfaces: map[string]model.SplitRecord{
			"Clay":  {Total: 1, P1Wins: 1},
			"Grass": {Total: 2, P1Wins: 1, P2Wins: 1},
		},
		Tournaments: map[string]model.SplitRecord{"Wimbledon": {Total: 2, P1Wins: 1, P2Wins: 1}},
	})
	out := buf.String()
	assert.Contains(t, out, "Rafael Nadal 2 – 1 Roger Federer")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Grass")), bytes.Index(buf.Bytes(), []byte("Clay")))
}

func TestPrintRows(t *testing.T) {
	var buf bytes.Buffer
	PrintRows(&buf, []string{"player_name", "gs_titles"}, nil)
	assert.Equal(t, "(no rows)\n", buf.String())

	buf.Reset()
	PrintRows(&buf, []string{"player_name", "gs_titles"}, [][]string{{"Rafael Nadal", "22"}, {"Andy Murray", "NULL"}})
	out := buf.String()
	assert.Contains(t, out, "Rafael Nadal")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(2 rows)")
}

func TestPrintBreakthroughs(t *testing.T) {
	var buf bytes.Buffer
	PrintBreakthroughs(&buf, []model.PlayerCareerMetrics{{
		PlayerName:           "Stan Wawrinka",
		Country:              "SUI",
		GSTitles:             3,
		HasGSTitle:           true,
		FirstGSTitleName:     model.Ptr("Australian Open"),
		FirstGSTitleDate:     model.Ptr(20140113),
		FirstGSTitleAge:      model.Ptr(28.8),
		MatchesBeforeFirstGS: model.Ptr(418),
		YearsToFirstGS:       model.Ptr(12),
	}})
	out := buf.String()
	assert.Contains(t, out, "Stan Wawrinka")
	assert.Contains(t, out, "2014-01-13")
	assert.Contains(t, out, "418")
	assert.Contains(t, out, "28.8")
	// no peak ranking recorded before the title
	assert.Contains(t, out, missing)
}
