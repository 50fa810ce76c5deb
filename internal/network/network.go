// Package network turns a filtered match subset into a player graph: one
// node per player, one edge per pair that met inside the subset.
package network

import (
	"sort"

	"github.com/pable/go-tennis-metrics/internal/h2h"
	"github.com/pable/go-tennis-metrics/internal/model"
)

// Win percentage buckets used to colour nodes.
const (
	CategoryAbove70 = "Above 70%"
	Category61To70  = "61% - 70%"
	Category51To60  = "51% - 60%"
	Category41To50  = "41% - 50%"
	CategoryLow     = "40% or below"
)

const top5Rank = 5

// WinPctCategory buckets a 0-100 win percentage.
func WinPctCategory(pct float64) string {
	switch {
	case pct > 70:
		return CategoryAbove70
	case pct > 60:
		return Category61To70
	case pct > 50:
		return Category51To60
	case pct > 40:
		return Category41To50
	default:
		return CategoryLow
	}
}

// SubsetStats are computed from the filtered matches only.
type SubsetStats struct {
	MatchesPlayed   int                 `json:"matches_played"`
	MatchesWon      int                 `json:"matches_won"`
	WinPct          float64             `json:"win_pct"`
	WinPctCategory  string              `json:"win_pct_category"`
	Top5Wins        int                 `json:"top_5_wins"`
	Top5Matches     int                 `json:"top_5_matches"`
	Top5WinPct      *float64            `json:"top_5_win_pct"`
	UniqueOpponents int                 `json:"unique_opponents"`
	SurfaceWins     map[string]int      `json:"surface_wins"`
	SurfaceMatches  map[string]int      `json:"surface_matches"`
	SurfaceWinPcts  map[string]*float64 `json:"surface_win_pcts"`
	TourneyWins     map[string]int      `json:"tourney_wins"`
	TourneyMatches  map[string]int      `json:"tourney_matches"`
	TourneyWinPcts  map[string]*float64 `json:"tourney_win_pcts"`
}

// CareerContext is copied from the player's whole-career metrics.
type CareerContext struct {
	TotalMatches int      `json:"career_total_matches"`
	WinPct       *float64 `json:"career_win_pct"`
	GSTitles     int      `json:"gs_titles"`
	PeakRanking  *int     `json:"peak_ranking"`
	WasTop5      bool     `json:"was_top_5"`
}

// Node is one player of the graph. Career is nil when the player has no
// career row.
type Node struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Country string         `json:"country"`
	Subset  SubsetStats    `json:"subset"`
	Career  *CareerContext `json:"career"`

	opponents map[string]struct{}
}

// YearRange is the span of match years in the subset.
type YearRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Metadata summarizes the graph. Counts always agree with Nodes and Edges.
type Metadata struct {
	Name          string     `json:"name,omitempty"`
	TotalMatches  int        `json:"total_matches"`
	TotalPlayers  int        `json:"total_players"`
	TotalMatchups int        `json:"total_matchups"`
	YearRange     *YearRange `json:"year_range"`
}

// Graph is the serialized network: {nodes, edges, metadata}.
type Graph struct {
	Nodes    []Node                   `json:"nodes"`
	Edges    []model.HeadToHeadRecord `json:"edges"`
	Metadata Metadata                 `json:"metadata"`
}

// Build constructs the graph for subset. Edges reuse the head-to-head
// builder over the same subset, so a match counts once per edge.
func Build(subset []model.MatchEnriched, careers []model.PlayerCareerMetrics) Graph {
	byID := make(map[string]*model.PlayerCareerMetrics, len(careers))
	for i := range careers {
		byID[careers[i].PlayerID] = &careers[i]
	}

	nodes := make(map[string]*Node)
	node := func(id, name, country string) *Node {
		if n, ok := nodes[id]; ok {
			return n
		}
		n := &Node{
			ID:      id,
			Name:    name,
			Country: country,
			Subset: SubsetStats{
				SurfaceWins:    map[string]int{},
				SurfaceMatches: map[string]int{},
				TourneyWins:    map[string]int{},
				TourneyMatches: map[string]int{},
			},
			opponents: map[string]struct{}{},
		}
		if c, ok := byID[id]; ok {
			n.Career = &CareerContext{
				TotalMatches: c.TotalMatches,
				WinPct:       model.Clone(c.WinPct),
				GSTitles:     c.GSTitles,
				PeakRanking:  model.Clone(c.PeakRanking),
				WasTop5:      c.WasTop5,
			}
			if c.Country != "" {
				n.Country = c.Country
			}
		}
		nodes[id] = n
		return n
	}

	var yr *YearRange
	for i := range subset {
		m := &subset[i]
		surface := string(m.Surface)
		if !m.Surface.Known() {
			surface = string(model.SurfaceUnknown)
		}
		tourney := m.TournamentKey
		if tourney == "" {
			tourney = m.TourneyName
		}

		w := node(m.WinnerID, m.WinnerName, m.WinnerCountry)
		l := node(m.LoserID, m.LoserName, m.LoserCountry)

		w.Subset.MatchesPlayed++
		w.Subset.MatchesWon++
		w.Subset.SurfaceMatches[surface]++
		w.Subset.SurfaceWins[surface]++
		w.Subset.TourneyMatches[tourney]++
		w.Subset.TourneyWins[tourney]++
		w.opponents[l.ID] = struct{}{}
		if m.LoserRank != nil && *m.LoserRank <= top5Rank {
			w.Subset.Top5Matches++
			w.Subset.Top5Wins++
		}

		l.Subset.MatchesPlayed++
		l.Subset.SurfaceMatches[surface]++
		l.Subset.TourneyMatches[tourney]++
		l.opponents[w.ID] = struct{}{}
		if m.WinnerRank != nil && *m.WinnerRank <= top5Rank {
			l.Subset.Top5Matches++
		}

		y := m.MatchYear
		if yr == nil {
			yr = &YearRange{Min: y, Max: y}
		}
		yr.Min = min(yr.Min, y)
		yr.Max = max(yr.Max, y)
	}

	g := Graph{Nodes: make([]Node, 0, len(nodes))}
	for _, n := range nodes {
		s := &n.Subset
		s.WinPct = *model.Pct(s.MatchesWon, s.MatchesPlayed)
		s.WinPctCategory = WinPctCategory(s.WinPct)
		s.Top5WinPct = model.Pct(s.Top5Wins, s.Top5Matches)
		s.UniqueOpponents = len(n.opponents)
		s.SurfaceWinPcts = winPcts(s.SurfaceWins, s.SurfaceMatches)
		s.TourneyWinPcts = winPcts(s.TourneyWins, s.TourneyMatches)
		n.opponents = nil
		g.Nodes = append(g.Nodes, *n)
	}
	sort.Slice(g.Nodes, func(i, j int) bool {
		if g.Nodes[i].Name != g.Nodes[j].Name {
			return g.Nodes[i].Name < g.Nodes[j].Name
		}
		return g.Nodes[i].ID < g.Nodes[j].ID
	})

	g.Edges = h2h.Build(subset).Records()
	g.Metadata = Metadata{
		TotalMatches:  len(subset),
		TotalPlayers:  len(g.Nodes),
		TotalMatchups: len(g.Edges),
		YearRange:     yr,
	}
	return g
}

// winPcts has an entry for every bucket played.
func winPcts(wins, played map[string]int) map[string]*float64 {
	out := make(map[string]*float64, len(played))
	for k, n := range played {
		out[k] = model.Pct(wins[k], n)
	}
	return out
}

// Consistent reports whether the metadata agrees with the node and edge
// lists and every edge is internally consistent.
func (g Graph) Consistent() bool {
	if g.Metadata.TotalPlayers != len(g.Nodes) || g.Metadata.TotalMatchups != len(g.Edges) {
		return false
	}
	sum := 0
	for _, e := range g.Edges {
		if !h2h.Check(e) {
			return false
		}
		sum += e.TotalMatches
	}
	played := 0
	for _, n := range g.Nodes {
		played += n.Subset.MatchesPlayed
	}
	return sum == g.Metadata.TotalMatches && played == 2*g.Metadata.TotalMatches
}
