package network

import (
	"strings"

	"github.com/pable/go-tennis-metrics/internal/model"
	"github.com/pable/go-tennis-metrics/internal/tournament"
)

// Filter restricts the match subset. Zero fields do not filter. Tournaments
// match the normalized tournament key, so a canonical slam name selects
// every historical name of that slam. Players match either side by ID.
type Filter struct {
	MinYear     int      `json:"min_year,omitempty"`
	MaxYear     int      `json:"max_year,omitempty"`
	Tournaments []string `json:"tournaments,omitempty"`
	Rounds      []string `json:"rounds,omitempty"`
	Players     []string `json:"players,omitempty"`
}

type compiled struct {
	f           Filter
	tournaments map[string]struct{}
	rounds      map[string]struct{}
	players     map[string]struct{}
}

func set(vs []string) map[string]struct{} {
	if len(vs) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		out[v] = struct{}{}
	}
	return out
}

func (f Filter) compile() compiled {
	return compiled{
		f:           f,
		tournaments: set(f.Tournaments),
		rounds:      set(f.Rounds),
		players:     set(f.Players),
	}
}

func (c compiled) match(m *model.MatchEnriched) bool {
	if c.f.MinYear != 0 && m.MatchYear < c.f.MinYear {
		return false
	}
	if c.f.MaxYear != 0 && m.MatchYear > c.f.MaxYear {
		return false
	}
	if c.tournaments != nil {
		if _, ok := c.tournaments[m.TournamentKey]; !ok {
			return false
		}
	}
	if c.rounds != nil {
		if _, ok := c.rounds[m.Round]; !ok {
			return false
		}
	}
	if c.players != nil {
		_, w := c.players[m.WinnerID]
		_, l := c.players[m.LoserID]
		if !w && !l {
			return false
		}
	}
	return true
}

// Select returns the matches passing every filter, in input order. Each
// match appears at most once however many filters are given.
func Select(matches []model.MatchEnriched, filters ...Filter) []model.MatchEnriched {
	cs := make([]compiled, len(filters))
	for i, f := range filters {
		cs[i] = f.compile()
	}
	var out []model.MatchEnriched
next:
	for i := range matches {
		for _, c := range cs {
			if !c.match(&matches[i]) {
				continue next
			}
		}
		out = append(out, matches[i])
	}
	return out
}

// Preset is a named, reproducible network dataset.
type Preset struct {
	Name        string
	Description string
	Filter      Filter
	// MinCareerMatches, when set, restricts the subset to matches involving
	// a player with at least this many career matches.
	MinCareerMatches int
}

// Presets returns the standard datasets: all slam finals since 2003, each
// slam's finals since 1982 and the high-volume player network since 2000.
func Presets() []Preset {
	ps := []Preset{{
		Name:        "grand_slam_finals_2003",
		Description: "Grand Slam finals since 2003",
		Filter:      Filter{MinYear: 2003, Tournaments: tournament.GrandSlams, Rounds: []string{"F"}},
	}}
	for _, slam := range tournament.GrandSlams {
		ps = append(ps, Preset{
			Name:        slug(slam) + "_finals_1982",
			Description: slam + " finals since 1982",
			Filter:      Filter{MinYear: 1982, Tournaments: []string{slam}, Rounds: []string{"F"}},
		})
	}
	return append(ps, Preset{
		Name:             "high_volume_players_2000",
		Description:      "players with 200+ career matches, since 2000",
		Filter:           Filter{MinYear: 2000},
		MinCareerMatches: 200,
	})
}

// LookupPreset finds a preset by name.
func LookupPreset(name string) (Preset, bool) {
	for _, p := range Presets() {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Build selects the preset's subset and builds its graph.
func (p Preset) Build(matches []model.MatchEnriched, careers []model.PlayerCareerMetrics) Graph {
	filters := []Filter{p.Filter}
	if p.MinCareerMatches > 0 {
		var ids []string
		for _, c := range careers {
			if c.TotalMatches >= p.MinCareerMatches {
				ids = append(ids, c.PlayerID)
			}
		}
		// An empty list must still filter everything out.
		if len(ids) == 0 {
			ids = []string{""}
		}
		filters = append(filters, Filter{Players: ids})
	}
	g := Build(Select(matches, filters...), careers)
	g.Metadata.Name = p.Name
	return g
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "_")
}
