// Package index computes the composite rankings: the Nailbiter Index over
// Grand Slam finals and semifinals, and the Dominance Index over title runs.
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/pable/go-tennis-metrics/internal/model"
	"github.com/pable/go-tennis-metrics/internal/tournament"
)

// ErrInvalidWeights is returned when a weight set is negative or does not
// sum to one.
var ErrInvalidWeights = errors.New("invalid weights")

const weightSumTolerance = 1e-6

// NBIWeights are the per-component weights of the Nailbiter Index.
type NBIWeights struct {
	Version          string  `koanf:"version" json:"version"`
	SetCloseness     float64 `koanf:"set_closeness" json:"set_closeness"`
	Comeback         float64 `koanf:"comeback" json:"comeback"`
	LeadChanges      float64 `koanf:"lead_changes" json:"lead_changes"`
	Tiebreaks        float64 `koanf:"tiebreaks" json:"tiebreaks"`
	Duration         float64 `koanf:"duration" json:"duration"`
	BPSaved          float64 `koanf:"bp_saved" json:"bp_saved"`
	FinalSetTiebreak float64 `koanf:"final_set_tiebreak" json:"final_set_tiebreak"`
}

// DefaultNBIWeights returns the nbi-v1 weight set.
func DefaultNBIWeights() NBIWeights {
	return NBIWeights{
		Version:          "nbi-v1",
		SetCloseness:     0.25,
		Comeback:         0.22,
		LeadChanges:      0.18,
		Tiebreaks:        0.12,
		Duration:         0.10,
		BPSaved:          0.07,
		FinalSetTiebreak: 0.06,
	}
}

func (w NBIWeights) values() []float64 {
	return []float64{w.SetCloseness, w.Comeback, w.LeadChanges, w.Tiebreaks, w.Duration, w.BPSaved, w.FinalSetTiebreak}
}

// Validate checks that every weight is non-negative and that they sum to 1.
func (w NBIWeights) Validate() error {
	return checkWeights(w.Version, w.values())
}

func checkWeights(version string, ws []float64) error {
	if version == "" {
		return fmt.Errorf("%w: missing version", ErrInvalidWeights)
	}
	sum := 0.0
	for _, v := range ws {
		if v < 0 {
			return fmt.Errorf("%w: %s has a negative weight", ErrInvalidWeights, version)
		}
		sum += v
	}
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("%w: %s sums to %.4f", ErrInvalidWeights, version, sum)
	}
	return nil
}

// Normalization selects how raw sub-scores are mapped onto [0,1].
type Normalization string

const (
	// NormalizeMinMax rescales each column against the candidate set. A
	// constant column normalizes to 0.
	NormalizeMinMax Normalization = "minmax"
	// NormalizeFixed divides by the configured FixedScales and clamps.
	NormalizeFixed Normalization = "fixed"
)

// FixedScales are the saturation points used by NormalizeFixed.
type FixedScales struct {
	MaxSetMargin     float64 `koanf:"max_set_margin" json:"max_set_margin"`
	MaxComeback      float64 `koanf:"max_comeback" json:"max_comeback"`
	MaxLeadChanges   float64 `koanf:"max_lead_changes" json:"max_lead_changes"`
	MaxTiebreaks     float64 `koanf:"max_tiebreaks" json:"max_tiebreaks"`
	MaxMinutesPerSet float64 `koanf:"max_minutes_per_set" json:"max_minutes_per_set"`
}

// DefaultFixedScales returns scales wide enough for five-set matches.
func DefaultFixedScales() FixedScales {
	return FixedScales{
		MaxSetMargin:     6,
		MaxComeback:      4,
		MaxLeadChanges:   4,
		MaxTiebreaks:     5,
		MaxMinutesPerSet: 75,
	}
}

// Drama tag thresholds.
const (
	tagComebackMin     = 2
	tagTiebreaksMin    = 2
	tagLeadChangesMin  = 2
	tagBPSavedRatio    = 0.6
	tagDurationNorm    = 0.7
	standardMatchTag   = "standard"
	nailbiterPrecision = 4
)

// NBIConfig holds every tunable of the Nailbiter Index.
type NBIConfig struct {
	Weights       NBIWeights
	Normalization Normalization
	Scales        FixedScales
	MinYear       int
}

// NBIOption configures RankNailbiters.
type NBIOption func(*NBIConfig)

// WithNBIWeights replaces the default weight set.
func WithNBIWeights(w NBIWeights) NBIOption {
	return func(c *NBIConfig) { c.Weights = w }
}

// WithNormalization selects the normalization mode. The scales are only
// consulted in NormalizeFixed mode.
func WithNormalization(mode Normalization, scales FixedScales) NBIOption {
	return func(c *NBIConfig) {
		c.Normalization = mode
		c.Scales = scales
	}
}

// WithMinYear excludes matches played before year.
func WithMinYear(year int) NBIOption {
	return func(c *NBIConfig) { c.MinYear = year }
}

func newNBIConfig(opts []NBIOption) (NBIConfig, error) {
	c := NBIConfig{
		Weights:       DefaultNBIWeights(),
		Normalization: NormalizeMinMax,
		Scales:        DefaultFixedScales(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.Weights.Validate(); err != nil {
		return c, err
	}
	switch c.Normalization {
	case NormalizeMinMax:
	case NormalizeFixed:
		s := c.Scales
		if s.MaxSetMargin <= 0 || s.MaxComeback <= 0 || s.MaxLeadChanges <= 0 || s.MaxTiebreaks <= 0 || s.MaxMinutesPerSet <= 0 {
			return c, fmt.Errorf("fixed normalization: every scale must be positive")
		}
	default:
		return c, fmt.Errorf("unknown normalization %q", c.Normalization)
	}
	return c, nil
}

// IsNailbiterCandidate reports whether m is in scope for the index: a
// completed Grand Slam final or semifinal played in or after minYear.
func IsNailbiterCandidate(m *model.MatchEnriched, minYear int) bool {
	return m.IsGrandSlam &&
		(m.IsFinal || m.IsSemifinal) &&
		m.IsComplete &&
		m.AvgSetMargin != nil &&
		m.MatchYear >= minYear
}

// raw sub-scores of one candidate before normalization.
type nbiRaw struct {
	m             *model.MatchEnriched
	margin        float64
	comeback      float64
	leadChanges   float64
	tiebreaks     float64
	minutesPerSet *float64
	bpSaved       float64
	finalSetTB    bool
}

// column is the observed range of one sub-score.
type column struct {
	min, max float64
	seen     bool
}

func (c *column) observe(v float64) {
	if !c.seen {
		c.min, c.max, c.seen = v, v, true
		return
	}
	c.min = math.Min(c.min, v)
	c.max = math.Max(c.max, v)
}

func (c column) scale(v float64) float64 {
	if !c.seen || c.max == c.min {
		return 0
	}
	return clamp01((v - c.min) / (c.max - c.min))
}

func clamp01(v float64) float64 { return math.Max(0, math.Min(1, v)) }

// RankNailbiters scores every candidate match and returns them ordered by
// NBI descending, then date, round (final first), winner and loser.
// Non-candidates are excluded, never scored.
func RankNailbiters(matches []model.MatchEnriched, opts ...NBIOption) ([]model.NailbiterEntry, error) {
	cfg, err := newNBIConfig(opts)
	if err != nil {
		return nil, err
	}

	var rows []nbiRaw
	for i := range matches {
		m := &matches[i]
		if !IsNailbiterCandidate(m, cfg.MinYear) {
			continue
		}
		r := nbiRaw{
			m:           m,
			margin:      *m.AvgSetMargin,
			comeback:    float64(model.IntOr(m.ComebackScore, 0)),
			leadChanges: float64(model.IntOr(m.LeadChanges, 0)),
			tiebreaks:   float64(model.IntOr(m.TiebreaksCount, 0)),
			finalSetTB:  m.FinalSetTiebreak != nil && *m.FinalSetTiebreak,
		}
		if sets := len(m.SetMargins); m.Minutes != nil && sets > 0 {
			r.minutesPerSet = model.Ptr(float64(*m.Minutes) / float64(sets))
		}
		if m.BPSavedRatio != nil {
			r.bpSaved = *m.BPSavedRatio
		}
		rows = append(rows, r)
	}

	var margin, comeback, leads, tbs, dur, bp column
	for _, r := range rows {
		margin.observe(r.margin)
		comeback.observe(r.comeback)
		leads.observe(r.leadChanges)
		tbs.observe(r.tiebreaks)
		bp.observe(r.bpSaved)
		if r.minutesPerSet != nil {
			dur.observe(*r.minutesPerSet)
		}
	}

	w := cfg.Weights
	out := make([]model.NailbiterEntry, 0, len(rows))
	raws := make([]float64, 0, len(rows))
	for _, r := range rows {
		var n model.NailbiterComponents
		switch cfg.Normalization {
		case NormalizeFixed:
			s := cfg.Scales
			n.SetCloseness = 1 - clamp01(r.margin/s.MaxSetMargin)
			n.Comeback = clamp01(r.comeback / s.MaxComeback)
			n.LeadChanges = clamp01(r.leadChanges / s.MaxLeadChanges)
			n.Tiebreaks = clamp01(r.tiebreaks / s.MaxTiebreaks)
			n.BPSaved = clamp01(r.bpSaved)
			if r.minutesPerSet != nil {
				n.Duration = clamp01(*r.minutesPerSet / s.MaxMinutesPerSet)
			}
		default:
			// Smaller margins are closer matches.
			if margin.max != margin.min {
				n.SetCloseness = clamp01((margin.max - r.margin) / (margin.max - margin.min))
			}
			n.Comeback = comeback.scale(r.comeback)
			n.LeadChanges = leads.scale(r.leadChanges)
			n.Tiebreaks = tbs.scale(r.tiebreaks)
			n.BPSaved = bp.scale(r.bpSaved)
			if r.minutesPerSet != nil {
				n.Duration = dur.scale(*r.minutesPerSet)
			}
		}
		if r.finalSetTB {
			n.FinalSetTiebreak = 1
		}

		wt := model.NailbiterComponents{
			SetCloseness:     w.SetCloseness * n.SetCloseness,
			Comeback:         w.Comeback * n.Comeback,
			LeadChanges:      w.LeadChanges * n.LeadChanges,
			Tiebreaks:        w.Tiebreaks * n.Tiebreaks,
			Duration:         w.Duration * n.Duration,
			BPSaved:          w.BPSaved * n.BPSaved,
			FinalSetTiebreak: w.FinalSetTiebreak * n.FinalSetTiebreak,
		}
		nbi := clamp01(wt.SetCloseness + wt.Comeback + wt.LeadChanges + wt.Tiebreaks + wt.Duration + wt.BPSaved + wt.FinalSetTiebreak)

		m := r.m
		e := model.NailbiterEntry{
			TourneyName:      m.TourneyName,
			GrandSlam:        model.Deref(m.GrandSlamName),
			TourneyDate:      m.TourneyDate,
			Year:             m.MatchYear,
			Round:            m.Round,
			Winner:           m.WinnerName,
			Loser:            m.LoserName,
			Score:            m.Score,
			NBI:              model.Round(nbi, nailbiterPrecision),
			NBI100:           model.Round(nbi*100, 2),
			WeightsVersion:   w.Version,
			AvgSetMargin:     r.margin,
			ComebackScore:    int(r.comeback),
			LeadChanges:      int(r.leadChanges),
			TiebreaksCount:   int(r.tiebreaks),
			Minutes:          model.Clone(m.Minutes),
			BPSavedRatio:     model.Clone(m.BPSavedRatio),
			FinalSetTiebreak: r.finalSetTB,
			Normalized:       roundComponents(n),
			Weighted:         roundComponents(wt),
		}
		if r.minutesPerSet != nil {
			e.MinutesPerSet = model.Ptr(model.Round(*r.minutesPerSet, 2))
		}
		e.DramaTags = dramaTags(r, n)
		out = append(out, e)
		raws = append(raws, nbi)
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		x, y := out[idx[a]], out[idx[b]]
		if raws[idx[a]] != raws[idx[b]] {
			return raws[idx[a]] > raws[idx[b]]
		}
		if x.TourneyDate != y.TourneyDate {
			return x.TourneyDate < y.TourneyDate
		}
		if rx, ry := tournament.RoundOrder(x.Round), tournament.RoundOrder(y.Round); rx != ry {
			return rx > ry
		}
		if x.Winner != y.Winner {
			return x.Winner < y.Winner
		}
		return x.Loser < y.Loser
	})
	ranked := make([]model.NailbiterEntry, len(out))
	for rank, i := range idx {
		ranked[rank] = out[i]
		ranked[rank].Rank = rank + 1
	}
	return ranked, nil
}

func dramaTags(r nbiRaw, n model.NailbiterComponents) []string {
	var tags []string
	if r.comeback >= tagComebackMin {
		tags = append(tags, "comeback")
	}
	if r.tiebreaks >= tagTiebreaksMin {
		tags = append(tags, "tiebreaks")
	}
	if r.leadChanges >= tagLeadChangesMin {
		tags = append(tags, "momentum")
	}
	if r.bpSaved > tagBPSavedRatio {
		tags = append(tags, "bp drama")
	}
	if n.Duration > tagDurationNorm {
		tags = append(tags, "epic length")
	}
	if r.finalSetTB {
		tags = append(tags, "final set tiebreak")
	}
	if len(tags) == 0 {
		tags = []string{standardMatchTag}
	}
	return tags
}

func roundComponents(c model.NailbiterComponents) model.NailbiterComponents {
	return model.NailbiterComponents{
		SetCloseness:     model.Round(c.SetCloseness, nailbiterPrecision),
		Comeback:         model.Round(c.Comeback, nailbiterPrecision),
		LeadChanges:      model.Round(c.LeadChanges, nailbiterPrecision),
		Tiebreaks:        model.Round(c.Tiebreaks, nailbiterPrecision),
		Duration:         model.Round(c.Duration, nailbiterPrecision),
		BPSaved:          model.Round(c.BPSaved, nailbiterPrecision),
		FinalSetTiebreak: model.Round(c.FinalSetTiebreak, nailbiterPrecision),
	}
}
