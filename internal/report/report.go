package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-tennis-metrics/internal/model"
	"github.com/pable/go-tennis-metrics/internal/pipeline"
)

const missing = "—"

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

func pct(p *float64) string {
	if p == nil {
		return missing
	}
	return fmt.Sprintf("%.1f%%", *p)
}

func num[T int | float64](p *T) string {
	if p == nil {
		return missing
	}
	switch v := any(*p).(type) {
	case int:
		return strconv.Itoa(v)
	case float64:
		return fmt.Sprintf("%.1f", v)
	}
	return missing
}

// date renders a YYYYMMDD integer as YYYY-MM-DD.
func date(d int) string {
	if d <= 0 {
		return missing
	}
	return fmt.Sprintf("%04d-%02d-%02d", d/10000, d/100%100, d%100)
}

func datePtr(d *int) string {
	if d == nil {
		return missing
	}
	return date(*d)
}

// PrintRows renders an untyped result set, e.g. from a raw SQL query.
func PrintRows(w io.Writer, cols []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	t := newTable(w)
	t.Header(anySlice(cols)...)
	for _, r := range rows {
		t.Append(anySlice(r)...)
	}
	t.Render()
	fmt.Fprintf(w, "\n(%d rows)\n", len(rows))
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// PrintRunSummary prints the counters of one build run.
func PrintRunSummary(w io.Writer, d pipeline.Diagnostics, players, pairs, nailbiters, dominance int) {
	fmt.Fprintf(w, "\nRows: %d total  |  %d valid  |  %d invalid\n", d.RowsTotal, d.RowsValid, d.RowsInvalid)
	fmt.Fprintf(w, "Scores: %d unparseable  |  %d retirements  |  %d walkovers  |  %d ambiguous tiebreaks\n",
		d.ParseFailures, d.Retirements, d.Walkovers, d.AmbiguousTiebreaks)
	fmt.Fprintf(w, "Players: %d  |  H2H pairs: %d  |  Nailbiters: %d  |  Dominance campaigns: %d\n\n",
		players, pairs, nailbiters, dominance)
}

// PrintIssues prints up to limit diagnostics entries. limit <= 0 prints all.
func PrintIssues(w io.Writer, issues []pipeline.Issue, limit int) {
	if len(issues) == 0 {
		return
	}
	shown := issues
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	table := newTable(w)
	table.Header("ROW", "KIND", "DETAIL")
	for _, is := range shown {
		table.Append(strconv.Itoa(is.Row), string(is.Kind), is.Detail)
	}
	table.Render()
	if len(shown) < len(issues) {
		fmt.Fprintf(w, "(%d more issues not shown)\n", len(issues)-len(shown))
	}
}

// PrintCareerTable prints one overview row per player.
func PrintCareerTable(w io.Writer, careers []model.PlayerCareerMetrics) {
	table := newTable(w)
	table.Header("PLAYER", "CTRY", "YEARS", "M", "W", "L", "WIN%", "GS_W-L", "GS_WIN%", "TITLES", "PEAK", "TOP10_WIN%")
	for _, c := range careers {
		years := missing
		if c.CareerStartYear != nil && c.CareerEndYear != nil {
			years = fmt.Sprintf("%d-%d", *c.CareerStartYear, *c.CareerEndYear)
		}
		table.Append(
			c.PlayerName,
			c.Country,
			years,
			strconv.Itoa(c.TotalMatches),
			strconv.Itoa(c.TotalWins),
			strconv.Itoa(c.TotalLosses),
			pct(c.WinPct),
			fmt.Sprintf("%d-%d", c.GSWins, c.GSLosses),
			pct(c.GSWinPct),
			strconv.Itoa(c.GSTitles),
			num(c.PeakRanking),
			pct(c.Top10WinPct),
		)
	}
	table.Render()
}

// PrintBreakthroughs prints the road of each champion to the first major.
func PrintBreakthroughs(w io.Writer, champs []model.PlayerCareerMetrics) {
	table := newTable(w)
	table.Header("PLAYER", "CTRY", "FIRST MAJOR", "DATE", "AGE", "M BEFORE", "W BEFORE", "WIN% BEFORE", "YEARS", "PEAK BEFORE", "TITLES")
	for _, c := range champs {
		table.Append(
			c.PlayerName,
			c.Country,
			model.Deref(c.FirstGSTitleName),
			datePtr(c.FirstGSTitleDate),
			num(c.FirstGSTitleAge),
			num(c.MatchesBeforeFirstGS),
			num(c.WinsBeforeFirstGS),
			pct(c.WinPctBeforeFirstGS),
			num(c.YearsToFirstGS),
			num(c.PeakRankingBeforeGS),
			strconv.Itoa(c.GSTitles),
		)
	}
	table.Render()
}

// PrintPlayerCard prints the career card of one player: header, surfaces,
// opponent tiers and the road to the first major.
func PrintPlayerCard(w io.Writer, c model.PlayerCareerMetrics) {
	fmt.Fprintf(w, "\n%s (%s)  |  id %s  |  %s to %s\n",
		c.PlayerName, c.Country, c.PlayerID, datePtr(c.FirstMatchDate), datePtr(c.LastMatchDate))
	fmt.Fprintf(w, "Record %d-%d (%s)  |  Majors %d-%d (%s), %d titles, %d finals, %d SF, %d QF\n",
		c.TotalWins, c.TotalLosses, pct(c.WinPct),
		c.GSWins, c.GSLosses, pct(c.GSWinPct), c.GSTitles, c.GSFinals, c.GSSemifinals, c.GSQuarterfinals)
	fmt.Fprintf(w, "Peak ranking %s on %s  |  Avg opponent rank %s  |  %d opponents  |  Avg duration %s min\n\n",
		num(c.PeakRanking), datePtr(c.PeakRankingDate), num(c.AvgOpponentRank), c.UniqueOpponents, num(c.AvgMatchDuration))

	surfaces := newTable(w)
	surfaces.Header("SURFACE", "M", "W", "WIN%", "95% CI", "SAMPLE")
	for _, s := range model.KnownSurfaces {
		m, wins := c.SurfaceCount(s)
		surfaces.Append(string(s), strconv.Itoa(m), strconv.Itoa(wins), pct(model.Pct(wins, m)), ciRange(wins, m), sampleFlag(m))
	}
	if c.UnknownSurfaceMatches > 0 {
		surfaces.Append(string(model.SurfaceUnknown), strconv.Itoa(c.UnknownSurfaceMatches), missing, missing, missing, sampleFlag(c.UnknownSurfaceMatches))
	}
	surfaces.Render()

	tiers := newTable(w)
	tiers.Header("VS", "M", "W", "WIN%", "95% CI", "SAMPLE")
	for _, t := range []struct {
		label   string
		m, wins int
		pct     *float64
	}{
		{"Top 5", c.Top5Matches, c.Top5Wins, c.Top5WinPct},
		{"Top 10", c.Top10Matches, c.Top10Wins, c.Top10WinPct},
		{"Top 30", c.Top30Matches, c.Top30Wins, c.Top30WinPct},
	} {
		tiers.Append(t.label, strconv.Itoa(t.m), strconv.Itoa(t.wins), pct(t.pct), ciRange(t.wins, t.m), sampleFlag(t.m))
	}
	tiers.Render()

	if !c.HasGSTitle {
		fmt.Fprintln(w, "\nNo major title.")
		return
	}
	fmt.Fprintf(w, "\nFirst major: %s %s (%s), age %s, %s years into the career\n",
		model.Deref(c.FirstGSTitleName), num(c.FirstGSTitleYear), datePtr(c.FirstGSTitleDate),
		num(c.FirstGSTitleAge), num(c.YearsToFirstGS))
	fmt.Fprintf(w, "Before it: %s matches, %s wins (%s), peak ranking %s\n",
		num(c.MatchesBeforeFirstGS), num(c.WinsBeforeFirstGS), pct(c.WinPctBeforeFirstGS), num(c.PeakRankingBeforeGS))
}

// PrintMatches prints enriched matches from the point of view of playerID.
func PrintMatches(w io.Writer, matches []model.MatchEnriched, playerID string) {
	table := newTable(w)
	table.Header("DATE", "TOURNAMENT", "RD", "RESULT", "OPPONENT", "SCORE", "MIN", "COMEBACK", "LEADS")
	for _, m := range matches {
		result, opp := "L", m.WinnerName
		if m.WinnerID == playerID {
			result, opp = "W", m.LoserName
		}
		table.Append(
			date(m.TourneyDate),
			m.TourneyName,
			m.Round,
			result,
			opp,
			m.Score,
			num(m.Minutes),
			num(m.ComebackScore),
			num(m.LeadChanges),
		)
	}
	table.Render()
}

// PrintHeadToHead prints a pair summary followed by surface and tournament
// splits.
func PrintHeadToHead(w io.Writer, r model.HeadToHeadRecord) {
	fmt.Fprintf(w, "\n%s %d – %d %s  |  %d meetings  |  %s to %s\n\n",
		r.Player1, r.Player1Wins, r.Player2Wins, r.Player2, r.TotalMatches, date(r.FirstMeeting), date(r.LastMeeting))
	printSplits(w, "SURFACE", r, r.Surfaces)
	printSplits(w, "TOURNAMENT", r, r.Tournaments)
}

func printSplits(w io.Writer, label string, r model.HeadToHeadRecord, splits map[string]model.SplitRecord) {
	names := make([]string, 0, len(splits))
	for n := range splits {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := splits[names[i]], splits[names[j]]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return names[i] < names[j]
	})

	table := newTable(w)
	table.Header(label, "M", r.Player1, r.Player2)
	for _, n := range names {
		s := splits[n]
		table.Append(n, strconv.Itoa(s.Total), strconv.Itoa(s.P1Wins), strconv.Itoa(s.P2Wins))
	}
	table.Render()
}

// PrintNailbiters prints the NBI leaderboard.
func PrintNailbiters(w io.Writer, entries []model.NailbiterEntry) {
	table := newTable(w)
	table.Header("#", "YEAR", "SLAM", "RD", "WINNER", "LOSER", "SCORE", "NBI", "CLOSE", "COMEBACK", "LEADS", "TB", "DUR", "BP", "FSTB", "TAGS")
	for _, e := range entries {
		n := e.Normalized
		table.Append(
			strconv.Itoa(e.Rank),
			strconv.Itoa(e.Year),
			e.GrandSlam,
			e.Round,
			e.Winner,
			e.Loser,
			e.Score,
			fmt.Sprintf("%.2f", e.NBI100),
			fmt.Sprintf("%.2f", n.SetCloseness),
			fmt.Sprintf("%.2f", n.Comeback),
			fmt.Sprintf("%.2f", n.LeadChanges),
			fmt.Sprintf("%.2f", n.Tiebreaks),
			fmt.Sprintf("%.2f", n.Duration),
			fmt.Sprintf("%.2f", n.BPSaved),
			fmt.Sprintf("%.0f", n.FinalSetTiebreak),
			strings.Join(e.DramaTags, ", "),
		)
	}
	table.Render()
}

// PrintDominance prints the GSDI leaderboard.
func PrintDominance(w io.Writer, entries []model.DominanceEntry) {
	table := newTable(w)
	table.Header("#", "PLAYER", "SLAM", "YEAR", "GSDI", "W", "SETS", "GAMES", "SETS%", "GAMES%", "PTS%", "TOP30%", "SPEED", "TOP5_W", "PERFECT")
	for _, e := range entries {
		perfect := ""
		if e.PerfectCampaign {
			perfect = "yes"
		}
		table.Append(
			strconv.Itoa(e.Rank),
			e.Player,
			e.Tournament,
			strconv.Itoa(e.Year),
			fmt.Sprintf("%.2f", e.DominanceScore),
			strconv.Itoa(e.MatchesWon),
			fmt.Sprintf("%d-%d", e.SetsWon, e.SetsLost),
			fmt.Sprintf("%d-%d", e.GamesWon, e.GamesLost),
			fmt.Sprintf("%.1f", e.SetsWonPct),
			fmt.Sprintf("%.1f", e.GamesWonPct),
			fmt.Sprintf("%.1f", e.PointsWonPct),
			fmt.Sprintf("%.1f", e.PctTop30Opponents),
			fmt.Sprintf("%.1f", e.SpeedScore),
			strconv.Itoa(e.Top5Wins),
			perfect,
		)
	}
	table.Render()
}

func sampleFlag(n int) string {
	switch {
	case n >= 50:
		return "OK"
	case n >= 20:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}

func ciRange(wins, n int) string {
	if n == 0 {
		return missing
	}
	lo, hi := wilsonCI(wins, n)
	return fmt.Sprintf("%.0f-%.0f%%", lo*100, hi*100)
}

// wilsonCI computes the 95% Wilson score confidence interval for a proportion.
// Returns (lo, hi) as fractions in [0, 1].
func wilsonCI(hits, n int) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	z := 1.96
	p := float64(hits) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	center := (p + z*z/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom
	return math.Max(0, center-half), math.Min(1, center+half)
}
