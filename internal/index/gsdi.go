package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/pable/go-tennis-metrics/internal/model"
)

// GSDIWeights are the weights and bonuses of the Dominance Index.
type GSDIWeights struct {
	Version  string  `koanf:"version" json:"version"`
	Sets     float64 `koanf:"sets" json:"sets"`
	Games    float64 `koanf:"games" json:"games"`
	Points   float64 `koanf:"points" json:"points"`
	Opponent float64 `koanf:"opponent" json:"opponent"`
	Speed    float64 `koanf:"speed" json:"speed"`

	PerfectCampaignBonus float64 `koanf:"perfect_campaign_bonus" json:"perfect_campaign_bonus"`
	Top5WinBonus         float64 `koanf:"top5_win_bonus" json:"top5_win_bonus"`
}

// DefaultGSDIWeights returns the gsdi-v1 weight set.
func DefaultGSDIWeights() GSDIWeights {
	return GSDIWeights{
		Version:              "gsdi-v1",
		Sets:                 0.32,
		Games:                0.25,
		Points:               0.23,
		Opponent:             0.10,
		Speed:                0.10,
		PerfectCampaignBonus: 10,
		Top5WinBonus:         3,
	}
}

// Validate checks the weighted terms sum to 1 and bonuses are non-negative.
func (w GSDIWeights) Validate() error {
	if err := checkWeights(w.Version, []float64{w.Sets, w.Games, w.Points, w.Opponent, w.Speed}); err != nil {
		return err
	}
	if w.PerfectCampaignBonus < 0 || w.Top5WinBonus < 0 {
		return fmt.Errorf("%w: %s has a negative bonus", ErrInvalidWeights, w.Version)
	}
	return nil
}

// PointsEstimator approximates the share of points won from the share of
// games won: Base + (gamesPct - 50) * Slope.
type PointsEstimator struct {
	Base  float64 `koanf:"base" json:"base"`
	Slope float64 `koanf:"slope" json:"slope"`
}

// DefaultPointsEstimator returns the estimator with base 50 and slope 0.6.
func DefaultPointsEstimator() PointsEstimator {
	return PointsEstimator{Base: 50, Slope: 0.6}
}

// Estimate returns the estimated points-won percentage.
func (p PointsEstimator) Estimate(gamesWonPct float64) float64 {
	return p.Base + (gamesWonPct-50)*p.Slope
}

// GSDIConfig holds every tunable of the Dominance Index.
type GSDIConfig struct {
	Weights               GSDIWeights
	Points                PointsEstimator
	DefaultMatchMinutes   float64
	SpeedReferenceMinutes float64
	OpponentRankCutoff    int
	Top5RankCutoff        int
}

// GSDIOption configures Campaigns and RankDominance.
type GSDIOption func(*GSDIConfig)

// WithGSDIWeights replaces the default weight set.
func WithGSDIWeights(w GSDIWeights) GSDIOption {
	return func(c *GSDIConfig) { c.Weights = w }
}

// WithPointsEstimator replaces the points-won estimator.
func WithPointsEstimator(p PointsEstimator) GSDIOption {
	return func(c *GSDIConfig) { c.Points = p }
}

// WithSpeedMinutes sets the reference duration of the speed score and the
// average assumed when no match of a campaign has a duration.
func WithSpeedMinutes(reference, fallback float64) GSDIOption {
	return func(c *GSDIConfig) {
		if reference > 0 {
			c.SpeedReferenceMinutes = reference
		}
		if fallback > 0 {
			c.DefaultMatchMinutes = fallback
		}
	}
}

func newGSDIConfig(opts []GSDIOption) (GSDIConfig, error) {
	c := GSDIConfig{
		Weights:               DefaultGSDIWeights(),
		Points:                DefaultPointsEstimator(),
		DefaultMatchMinutes:   120,
		SpeedReferenceMinutes: 240,
		OpponentRankCutoff:    30,
		Top5RankCutoff:        5,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c, c.Weights.Validate()
}

type campaignKey struct {
	playerID   string
	tournament string
	year       int
}

type campaign struct {
	key      campaignKey
	player   string
	champion bool
	matches  []*model.MatchEnriched
}

// Campaigns scores every Grand Slam campaign: the matches one player won at
// one slam in one year. Partial runs are included with Champion false.
// Entries are ordered like RankDominance but carry no rank.
func Campaigns(matches []model.MatchEnriched, opts ...GSDIOption) ([]model.DominanceEntry, error) {
	cfg, err := newGSDIConfig(opts)
	if err != nil {
		return nil, err
	}

	byKey := make(map[campaignKey]*campaign)
	var order []*campaign
	for i := range matches {
		m := &matches[i]
		if !m.IsGrandSlam || m.GrandSlamName == nil {
			continue
		}
		k := campaignKey{playerID: m.WinnerID, tournament: *m.GrandSlamName, year: m.MatchYear}
		c, ok := byKey[k]
		if !ok {
			c = &campaign{key: k, player: m.WinnerName}
			byKey[k] = c
			order = append(order, c)
		}
		c.matches = append(c.matches, m)
		if m.IsFinal {
			c.champion = true
		}
	}

	out := make([]model.DominanceEntry, 0, len(order))
	for _, c := range order {
		out = append(out, scoreCampaign(c, cfg))
	}
	sortDominance(out)
	return out, nil
}

// RankDominance scores the campaigns that ended with the title and ranks
// them by score, then fewest sets lost, player and year.
func RankDominance(matches []model.MatchEnriched, opts ...GSDIOption) ([]model.DominanceEntry, error) {
	all, err := Campaigns(matches, opts...)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, e := range all {
		if e.Champion {
			e.Rank = len(out) + 1
			out = append(out, e)
		}
	}
	return out, nil
}

func scoreCampaign(c *campaign, cfg GSDIConfig) model.DominanceEntry {
	e := model.DominanceEntry{
		PlayerID:       c.key.playerID,
		Player:         c.player,
		Tournament:     c.key.tournament,
		Year:           c.key.year,
		Champion:       c.champion,
		MatchesWon:     len(c.matches),
		WeightsVersion: cfg.Weights.Version,
	}

	var (
		top30     int
		minutes   int
		timed     int
		top5Wins  int
		gamesWon  int
		gamesLost int
	)
	for _, m := range c.matches {
		e.SetsWon += model.IntOr(m.WinnerSets, 0)
		e.SetsLost += model.IntOr(m.LoserSets, 0)
		gamesWon += model.IntOr(m.WinnerGames, 0)
		gamesLost += model.IntOr(m.LoserGames, 0)
		if m.LoserRank != nil {
			if *m.LoserRank <= cfg.OpponentRankCutoff {
				top30++
			}
			if *m.LoserRank <= cfg.Top5RankCutoff {
				top5Wins++
			}
		}
		if m.Minutes != nil {
			minutes += *m.Minutes
			timed++
		}
	}
	e.GamesWon, e.GamesLost = gamesWon, gamesLost
	e.Top5Wins = top5Wins
	e.PerfectCampaign = e.SetsLost == 0

	setsPct := share(e.SetsWon, e.SetsWon+e.SetsLost)
	gamesPct := share(gamesWon, gamesWon+gamesLost)
	pointsPct := cfg.Points.Estimate(gamesPct)
	oppPct := share(top30, len(c.matches))

	avg := cfg.DefaultMatchMinutes
	if timed > 0 {
		avg = float64(minutes) / float64(timed)
		e.AvgMatchMinutes = model.Ptr(model.Round(avg, 1))
	}
	ref := cfg.SpeedReferenceMinutes
	speed := math.Max(0, math.Min(100, (ref-avg)/ref*100+50))

	w := cfg.Weights
	b := model.DominanceBreakdown{
		SetsComponent:     setsPct * w.Sets,
		GamesComponent:    gamesPct * w.Games,
		PointsComponent:   pointsPct * w.Points,
		OpponentComponent: oppPct * w.Opponent,
		SpeedComponent:    speed * w.Speed,
		Top5Bonus:         float64(top5Wins) * w.Top5WinBonus,
	}
	if e.PerfectCampaign {
		b.PerfectBonus = w.PerfectCampaignBonus
	}
	score := b.SetsComponent + b.GamesComponent + b.PointsComponent + b.OpponentComponent + b.SpeedComponent + b.PerfectBonus + b.Top5Bonus

	e.DominanceScore = model.Round(score, 2)
	e.SetsWonPct = model.Round(setsPct, 1)
	e.GamesWonPct = model.Round(gamesPct, 1)
	e.PointsWonPct = model.Round(pointsPct, 1)
	e.PctTop30Opponents = model.Round(oppPct, 1)
	e.SpeedScore = model.Round(speed, 1)
	e.Breakdown = model.DominanceBreakdown{
		SetsComponent:     model.Round(b.SetsComponent, 2),
		GamesComponent:    model.Round(b.GamesComponent, 2),
		PointsComponent:   model.Round(b.PointsComponent, 2),
		OpponentComponent: model.Round(b.OpponentComponent, 2),
		SpeedComponent:    model.Round(b.SpeedComponent, 2),
		PerfectBonus:      b.PerfectBonus,
		Top5Bonus:         b.Top5Bonus,
	}
	return e
}

// share is 100*num/den, or 0 for an empty campaign.
func share(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return 100 * float64(num) / float64(den)
}

func sortDominance(es []model.DominanceEntry) {
	sort.SliceStable(es, func(i, j int) bool {
		a, b := es[i], es[j]
		if a.DominanceScore != b.DominanceScore {
			return a.DominanceScore > b.DominanceScore
		}
		if a.SetsLost != b.SetsLost {
			return a.SetsLost < b.SetsLost
		}
		if a.Player != b.Player {
			return a.Player < b.Player
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Tournament != b.Tournament {
			return a.Tournament < b.Tournament
		}
		return a.PlayerID < b.PlayerID
	})
}
