// Package aggregator folds the enriched match stream into one career summary
// per player.
package aggregator

import (
	"fmt"
	"hash/fnv"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pable/go-tennis-metrics/internal/model"
	"github.com/pable/go-tennis-metrics/internal/tournament"
)

// Opponent rank thresholds for the tier breakdowns.
const (
	tierTop5  = 5
	tierTop10 = 10
	tierTop30 = 30
)

type options struct {
	workers int
}

// Option configures AggregateCareers.
type Option func(*options)

// WithWorkers sets the number of player shards folded in parallel.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// appearance is one match seen from one player's side.
type appearance struct {
	m   *model.MatchEnriched
	won bool
}

// AggregateCareers computes one PlayerCareerMetrics per identity, including
// players without matches. Output is ordered by name then ID and does not
// depend on the worker count. Every match player must be in players.
func AggregateCareers(players []model.PlayerIdentity, matches []model.MatchEnriched, opts ...Option) ([]model.PlayerCareerMetrics, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	index := make(map[string]int, len(players))
	for i, p := range players {
		if _, dup := index[p.ID]; dup {
			return nil, fmt.Errorf("duplicate player id %q", p.ID)
		}
		index[p.ID] = i
	}

	// ---- Pass 1: route every match to both players, in input order. ----

	apps := make([][]appearance, len(players))
	for i := range matches {
		m := &matches[i]
		wi, ok := index[m.WinnerID]
		if !ok {
			return nil, fmt.Errorf("match %d: unknown winner id %q", m.Row, m.WinnerID)
		}
		li, ok := index[m.LoserID]
		if !ok {
			return nil, fmt.Errorf("match %d: unknown loser id %q", m.Row, m.LoserID)
		}
		apps[wi] = append(apps[wi], appearance{m: m, won: true})
		apps[li] = append(apps[li], appearance{m: m, won: false})
	}

	// ---- Pass 2: fold each player's stream, sharded by player id. ----

	shards := make([][]int, o.workers)
	for i, p := range players {
		s := shardOf(p.ID, o.workers)
		shards[s] = append(shards[s], i)
	}

	out := make([]model.PlayerCareerMetrics, len(players))
	var g errgroup.Group
	for _, shard := range shards {
		g.Go(func() error {
			for _, i := range shard {
				out[i] = foldPlayer(players[i], apps[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PlayerName != out[j].PlayerName {
			return out[i].PlayerName < out[j].PlayerName
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}

func shardOf(id string, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(id))
	return int(h.Sum32() % uint32(n))
}

// sortChronological orders a player's matches by date, then round, then
// input position.
func sortChronological(apps []appearance) {
	sort.SliceStable(apps, func(i, j int) bool {
		a, b := apps[i].m, apps[j].m
		if a.TourneyDate != b.TourneyDate {
			return a.TourneyDate < b.TourneyDate
		}
		if ra, rb := tournament.RoundOrder(a.Round), tournament.RoundOrder(b.Round); ra != rb {
			return ra < rb
		}
		return a.Row < b.Row
	})
}

// foldPlayer walks one player's matches in chronological order.
func foldPlayer(p model.PlayerIdentity, apps []appearance) model.PlayerCareerMetrics {
	c := model.PlayerCareerMetrics{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Country:    p.Country,
	}
	if len(apps) == 0 {
		return c
	}
	sortChronological(apps)

	// First Grand Slam title, if any.
	titleDate := 0
	for _, a := range apps {
		if a.won && a.m.IsGrandSlam && a.m.IsFinal {
			titleDate = a.m.TourneyDate
			c.FirstGSTitleDate = model.Ptr(titleDate)
			c.FirstGSTitleYear = model.Ptr(model.DateYear(titleDate))
			c.FirstGSTitleAge = model.Clone(a.m.WinnerAge)
			c.FirstGSTitleName = model.Clone(a.m.GrandSlamName)
			break
		}
	}

	var (
		opponents     = make(map[string]struct{})
		oppRankSum    int
		oppRankN      int
		beforeMatches int
		beforeWins    int
		peakBefore    *int
	)
	for _, a := range apps {
		m := a.m
		date := m.TourneyDate
		ownRank, oppRank := m.LoserRank, m.WinnerRank
		oppID, country := m.WinnerID, m.LoserCountry
		if a.won {
			ownRank, oppRank = m.WinnerRank, m.LoserRank
			oppID, country = m.LoserID, m.WinnerCountry
		}
		if c.Country == "" && country != "" {
			c.Country = country
		}

		if c.FirstMatchDate == nil {
			c.FirstMatchDate = model.Ptr(date)
		}
		c.LastMatchDate = model.Ptr(date)

		c.TotalMatches++
		if a.won {
			c.TotalWins++
		} else {
			c.TotalLosses++
		}

		switch m.Surface {
		case model.SurfaceHard:
			c.HardMatches++
			c.HardWins += b2i(a.won)
		case model.SurfaceClay:
			c.ClayMatches++
			c.ClayWins += b2i(a.won)
		case model.SurfaceGrass:
			c.GrassMatches++
			c.GrassWins += b2i(a.won)
		case model.SurfaceCarpet:
			c.CarpetMatches++
			c.CarpetWins += b2i(a.won)
		default:
			c.UnknownSurfaceMatches++
		}

		if m.IsGrandSlam {
			c.GSMatches++
			if a.won {
				c.GSWins++
			} else {
				c.GSLosses++
			}
			switch {
			case m.IsFinal:
				c.GSFinals++
				if a.won {
					c.GSTitles++
				}
			case m.IsSemifinal:
				c.GSSemifinals++
			case m.IsQuarterfinal:
				c.GSQuarterfinals++
			}
		}

		if oppRank != nil {
			r := *oppRank
			oppRankSum += r
			oppRankN++
			if r <= tierTop5 {
				c.Top5Matches++
				c.Top5Wins += b2i(a.won)
			}
			if r <= tierTop10 {
				c.Top10Matches++
				c.Top10Wins += b2i(a.won)
			}
			if r <= tierTop30 {
				c.Top30Matches++
				c.Top30Wins += b2i(a.won)
			}
		}

		if ownRank != nil {
			r := *ownRank
			if c.PeakRanking == nil || r < *c.PeakRanking {
				c.PeakRanking = model.Ptr(r)
				c.PeakRankingDate = model.Ptr(date)
			}
			if titleDate != 0 && date < titleDate && (peakBefore == nil || r < *peakBefore) {
				peakBefore = model.Ptr(r)
			}
			if r <= tierTop5 {
				c.WasTop5 = true
			}
			if r <= tierTop10 {
				c.WasTop10 = true
			}
		}

		if titleDate != 0 && date < titleDate {
			beforeMatches++
			beforeWins += b2i(a.won)
		}

		if m.Minutes != nil {
			c.TotalMatchMinutes += *m.Minutes
			c.MatchesWithDuration++
		}
		opponents[oppID] = struct{}{}
	}

	// ---- Derived fields. ----

	c.CareerStartYear = model.Ptr(model.DateYear(*c.FirstMatchDate))
	c.CareerEndYear = model.Ptr(model.DateYear(*c.LastMatchDate))
	c.CareerSpanYears = model.Ptr(*c.CareerEndYear - *c.CareerStartYear)

	c.WinPct = model.Pct(c.TotalWins, c.TotalMatches)
	c.GSWinPct = model.Pct(c.GSWins, c.GSMatches)
	c.HardWinPct = model.Pct(c.HardWins, c.HardMatches)
	c.ClayWinPct = model.Pct(c.ClayWins, c.ClayMatches)
	c.GrassWinPct = model.Pct(c.GrassWins, c.GrassMatches)
	c.CarpetWinPct = model.Pct(c.CarpetWins, c.CarpetMatches)
	c.Top5WinPct = model.Pct(c.Top5Wins, c.Top5Matches)
	c.Top10WinPct = model.Pct(c.Top10Wins, c.Top10Matches)
	c.Top30WinPct = model.Pct(c.Top30Wins, c.Top30Matches)
	c.AvgOpponentRank = model.Mean(float64(oppRankSum), oppRankN, 1)
	c.AvgMatchDuration = model.Mean(float64(c.TotalMatchMinutes), c.MatchesWithDuration, 1)
	c.UniqueOpponents = len(opponents)

	if c.GSTitles > 0 {
		c.HasGSTitle = true
		c.MatchesBeforeFirstGS = model.Ptr(beforeMatches)
		c.WinsBeforeFirstGS = model.Ptr(beforeWins)
		c.WinPctBeforeFirstGS = model.Pct(beforeWins, beforeMatches)
		c.YearsToFirstGS = model.Ptr(*c.FirstGSTitleYear - *c.CareerStartYear)
		c.PeakRankingBeforeGS = peakBefore
	}
	return c
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Check verifies the internal consistency of a career row.
func Check(c model.PlayerCareerMetrics) error {
	if c.TotalWins+c.TotalLosses != c.TotalMatches {
		return fmt.Errorf("%s: wins %d + losses %d != matches %d", c.PlayerID, c.TotalWins, c.TotalLosses, c.TotalMatches)
	}
	surfaces := c.HardMatches + c.ClayMatches + c.GrassMatches + c.CarpetMatches
	if surfaces != c.TotalMatches-c.UnknownSurfaceMatches {
		return fmt.Errorf("%s: surface buckets sum to %d, want %d", c.PlayerID, surfaces, c.TotalMatches-c.UnknownSurfaceMatches)
	}
	for name, n := range map[string]int{
		"gs_matches":    c.GSMatches,
		"top5_matches":  c.Top5Matches,
		"top10_matches": c.Top10Matches,
		"top30_matches": c.Top30Matches,
	} {
		if n > c.TotalMatches {
			return fmt.Errorf("%s: %s %d exceeds total %d", c.PlayerID, name, n, c.TotalMatches)
		}
	}
	if c.TotalMatches == 0 && c.WinPct != nil {
		return fmt.Errorf("%s: win_pct set without matches", c.PlayerID)
	}
	if !c.HasGSTitle && (c.FirstGSTitleDate != nil || c.MatchesBeforeFirstGS != nil) {
		return fmt.Errorf("%s: breakthrough fields set without a title", c.PlayerID)
	}
	return nil
}
