// Package enricher derives per-match features from a raw match row and its
// parsed score.
package enricher

import (
	"github.com/pable/go-tennis-metrics/internal/model"
	"github.com/pable/go-tennis-metrics/internal/tournament"
)

// Enrich builds the enriched record for one match. A non-nil parseErr marks
// the match incomplete and leaves every score-derived field nil.
func Enrich(raw model.MatchRaw, parsed model.ParsedScore, parseErr error, norm *tournament.Normalizer) model.MatchEnriched {
	e := model.MatchEnriched{
		MatchRaw:       raw,
		Outcome:        parsed.Outcome,
		TournamentKey:  norm.Key(raw.TourneyName),
		IsFinal:        tournament.IsFinal(raw.Round),
		IsSemifinal:    tournament.IsSemifinal(raw.Round),
		IsQuarterfinal: tournament.IsQuarterfinal(raw.Round),
		MatchYear:      raw.Year(),
	}
	if gs, ok := norm.GrandSlam(raw.TourneyName); ok {
		e.IsGrandSlam = true
		e.GrandSlamName = model.Ptr(gs)
	}
	applyBreakPoints(&e)

	if parseErr != nil {
		e.Outcome = model.OutcomeUnparseable
		e.ParseError = model.Ptr(parseErr.Error())
		return e
	}

	e.IsComplete = parsed.IsComplete()
	e.AmbiguousTiebreak = parsed.AmbiguousTiebreak
	e.Sets = parsed.Sets
	e.WinnerSets = model.Ptr(parsed.WinnerSets())
	e.LoserSets = model.Ptr(parsed.LoserSets())
	e.WinnerGames = model.Ptr(parsed.WinnerGames())
	e.LoserGames = model.Ptr(parsed.LoserGames())
	e.TiebreaksCount = model.Ptr(parsed.TiebreakCount())

	completed := parsed.CompletedSets()
	if parsed.Outcome == model.OutcomeWalkover || len(completed) == 0 {
		return e
	}

	margins := make([]int, len(completed))
	total := 0
	for i, s := range completed {
		margins[i] = s.Margin()
		total += margins[i]
	}
	e.SetMargins = margins
	e.AvgSetMargin = model.Mean(float64(total), len(margins), 2)
	e.LeadChanges = model.Ptr(LeadChanges(completed))
	e.ComebackScore = model.Ptr(ComebackScore(completed, SetsToWin(raw.BestOf, parsed)))
	e.FinalSetTiebreak = model.Ptr(parsed.FinalSetTiebreak())
	return e
}

// applyBreakPoints fills the combined break-point figures when all four
// source columns are present.
func applyBreakPoints(e *model.MatchEnriched) {
	if e.WBpSaved == nil || e.WBpFaced == nil || e.LBpSaved == nil || e.LBpFaced == nil {
		return
	}
	saved := *e.WBpSaved + *e.LBpSaved
	faced := *e.WBpFaced + *e.LBpFaced
	e.BPSaved = model.Ptr(saved)
	e.BPFaced = model.Ptr(faced)
	if faced > 0 {
		e.BPSavedRatio = model.Ptr(model.Round(float64(saved)/float64(faced), 4))
	}
}

// LeadChanges counts how often the player behind in sets took the lead,
// walking the cumulative set tally. A level tally keeps the previous leader.
func LeadChanges(sets []model.SetScore) int {
	w, l, leader, changes := 0, 0, 0, 0
	for _, s := range sets {
		switch {
		case s.WonByWinner():
			w++
		case s.WonByLoser():
			l++
		default:
			continue
		}
		cur := 0
		if w > l {
			cur = 1
		} else if l > w {
			cur = -1
		}
		if cur == 0 {
			continue
		}
		if leader != 0 && cur != leader {
			changes++
		}
		leader = cur
	}
	return changes
}

// SetsToWin returns the sets needed to win the match, from best_of when
// known, otherwise inferred from the score.
func SetsToWin(bestOf *int, parsed model.ParsedScore) int {
	if bestOf != nil && *bestOf > 0 {
		return (*bestOf + 1) / 2
	}
	if parsed.IsComplete() {
		return parsed.WinnerSets()
	}
	if len(parsed.Sets) > 3 || max(parsed.WinnerSets(), parsed.LoserSets()) >= 3 {
		return 3
	}
	return 2
}

// Comeback tiers, highest applicable wins.
const (
	ComebackNone        = 0
	ComebackDownOneSet  = 1
	ComebackDownTwoSets = 2
	ComebackDownZeroTwo = 3
	ComebackMatchPoint  = 4
)

// ComebackTiers describes each comeback tier, indexed by tier.
var ComebackTiers = []string{
	ComebackNone:        "never trailed in sets",
	ComebackDownOneSet:  "trailed by one set at some point",
	ComebackDownTwoSets: "trailed by two sets at some point",
	ComebackDownZeroTwo: "lost the first two sets of a best-of-five",
	ComebackMatchPoint:  "won a tiebreak set in which the opponent, one set from the match, was one point from winning it (match point saved; only visible inside tiebreaks)",
}

// ComebackScore classifies how far behind the eventual winner fell, walking
// the completed sets in order.
func ComebackScore(sets []model.SetScore, setsToWin int) int {
	w, l, maxDeficit := 0, 0, 0
	matchPoint := false
	for _, s := range sets {
		// Opponent one set from victory and one point from this tiebreak.
		if s.WonByWinner() && s.Tiebreak != nil && l == setsToWin-1 &&
			s.Tiebreak.SetLoserPoints >= s.Tiebreak.Target-1 {
			matchPoint = true
		}
		switch {
		case s.WonByWinner():
			w++
		case s.WonByLoser():
			l++
		}
		maxDeficit = max(maxDeficit, l-w)
	}

	switch {
	case matchPoint:
		return ComebackMatchPoint
	case setsToWin == 3 && len(sets) >= 2 && sets[0].WonByLoser() && sets[1].WonByLoser():
		return ComebackDownZeroTwo
	case maxDeficit >= 2:
		return ComebackDownTwoSets
	case maxDeficit == 1:
		return ComebackDownOneSet
	}
	return ComebackNone
}

// WithCareerContext returns a copy of matches with each player's career
// standing from the latest aggregate attached. Players without a career row
// keep nil context.
func WithCareerContext(matches []model.MatchEnriched, careers []model.PlayerCareerMetrics) []model.MatchEnriched {
	byID := make(map[string]*model.PlayerCareerMetrics, len(careers))
	for i := range careers {
		byID[careers[i].PlayerID] = &careers[i]
	}
	out := make([]model.MatchEnriched, len(matches))
	for i, m := range matches {
		if c, ok := byID[m.WinnerID]; ok {
			m.WinnerCareerMatches = model.Ptr(c.TotalMatches)
			m.WinnerGSTitles = model.Ptr(c.GSTitles)
			m.WinnerHasGSTitle = model.Ptr(c.HasGSTitle)
			m.WinnerPeakRanking = model.Clone(c.PeakRanking)
		}
		if c, ok := byID[m.LoserID]; ok {
			m.LoserCareerMatches = model.Ptr(c.TotalMatches)
			m.LoserGSTitles = model.Ptr(c.GSTitles)
			m.LoserHasGSTitle = model.Ptr(c.HasGSTitle)
			m.LoserPeakRanking = model.Clone(c.PeakRanking)
		}
		out[i] = m
	}
	return out
}

