// Package h2h builds the head-to-head matrix: one record per unordered pair of
// players that met at least once.
package h2h

import (
	"sort"
	"strings"

	"github.com/pable/go-tennis-metrics/internal/model"
)

// Separator joins the two player names of a pair key. Input validation
// rejects names containing it, so keys split back unambiguously.
const Separator = "|"

// Key returns the canonical key for a pair: names in byte-wise order joined
// by Separator. Key(a, b) == Key(b, a).
func Key(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + Separator + b
}

// Matrix holds every head-to-head record keyed by Key.
type Matrix struct {
	records map[string]*model.HeadToHeadRecord
}

// Build folds matches into a Matrix in a single pass. Surfaces outside the
// four named buckets are tallied under "Unknown" and tournaments under their
// normalized key, so both breakdowns sum to the pair totals.
func Build(matches []model.MatchEnriched) *Matrix {
	mx := &Matrix{records: make(map[string]*model.HeadToHeadRecord)}
	for i := range matches {
		mx.add(&matches[i])
	}
	return mx
}

func (mx *Matrix) add(m *model.MatchEnriched) {
	key := Key(m.WinnerName, m.LoserName)
	rec, ok := mx.records[key]
	if !ok {
		p1, p1ID, p2, p2ID := m.WinnerName, m.WinnerID, m.LoserName, m.LoserID
		if p2 < p1 {
			p1, p1ID, p2, p2ID = p2, p2ID, p1, p1ID
		}
		rec = &model.HeadToHeadRecord{
			Key:          key,
			Player1:      p1,
			Player2:      p2,
			Player1ID:    p1ID,
			Player2ID:    p2ID,
			FirstMeeting: m.TourneyDate,
			LastMeeting:  m.TourneyDate,
			Surfaces:     make(map[string]model.SplitRecord),
			Tournaments:  make(map[string]model.SplitRecord),
		}
		mx.records[key] = rec
	}

	p1Won := m.WinnerName == rec.Player1
	rec.TotalMatches++
	if p1Won {
		rec.Player1Wins++
	} else {
		rec.Player2Wins++
	}
	rec.FirstMeeting = min(rec.FirstMeeting, m.TourneyDate)
	rec.LastMeeting = max(rec.LastMeeting, m.TourneyDate)

	surface := m.Surface
	if !surface.Known() {
		surface = model.SurfaceUnknown
	}
	rec.Surfaces[string(surface)] = tally(rec.Surfaces[string(surface)], p1Won)

	tourney := m.TournamentKey
	if tourney == "" {
		tourney = strings.TrimSpace(m.TourneyName)
	}
	rec.Tournaments[tourney] = tally(rec.Tournaments[tourney], p1Won)
}

func tally(s model.SplitRecord, p1Won bool) model.SplitRecord {
	s.Total++
	if p1Won {
		s.P1Wins++
	} else {
		s.P2Wins++
	}
	return s
}

// Lookup returns the record for a pair regardless of argument order.
func (mx *Matrix) Lookup(a, b string) (model.HeadToHeadRecord, bool) {
	rec, ok := mx.records[Key(a, b)]
	if !ok {
		return model.HeadToHeadRecord{}, false
	}
	return *rec, true
}

// Len returns the number of pairs.
func (mx *Matrix) Len() int { return len(mx.records) }

// Records returns every record ordered by key.
func (mx *Matrix) Records() []model.HeadToHeadRecord {
	out := make([]model.HeadToHeadRecord, 0, len(mx.records))
	for _, rec := range mx.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Map returns the records keyed by canonical pair key.
func (mx *Matrix) Map() map[string]model.HeadToHeadRecord {
	out := make(map[string]model.HeadToHeadRecord, len(mx.records))
	for k, rec := range mx.records {
		out[k] = *rec
	}
	return out
}

// Check verifies that the pair totals and every breakdown are consistent.
func Check(rec model.HeadToHeadRecord) bool {
	if rec.Player1Wins+rec.Player2Wins != rec.TotalMatches {
		return false
	}
	for _, group := range []map[string]model.SplitRecord{rec.Surfaces, rec.Tournaments} {
		sum := 0
		for _, s := range group {
			if s.P1Wins+s.P2Wins != s.Total {
				return false
			}
			sum += s.Total
		}
		if sum != rec.TotalMatches {
			return false
		}
	}
	return true
}
