package model

import "strings"

// Surface is the court surface a match was played on.
type Surface string

const (
	SurfaceHard    Surface = "Hard"
	SurfaceClay    Surface = "Clay"
	SurfaceGrass   Surface = "Grass"
	SurfaceCarpet  Surface = "Carpet"
	SurfaceUnknown Surface = "Unknown"
)

// KnownSurfaces lists the four named surface buckets in output order.
var KnownSurfaces = []Surface{SurfaceHard, SurfaceClay, SurfaceGrass, SurfaceCarpet}

// ParseSurface maps a raw surface cell to a Surface. Anything unrecognised,
// including the empty string, is SurfaceUnknown.
func ParseSurface(s string) Surface {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hard":
		return SurfaceHard
	case "clay":
		return SurfaceClay
	case "grass":
		return SurfaceGrass
	case "carpet":
		return SurfaceCarpet
	default:
		return SurfaceUnknown
	}
}

// Known reports whether s is one of the four named surfaces.
func (s Surface) Known() bool {
	switch s {
	case SurfaceHard, SurfaceClay, SurfaceGrass, SurfaceCarpet:
		return true
	}
	return false
}

// Outcome classifies how a match ended according to its score string.
type Outcome string

const (
	OutcomeCompleted   Outcome = "completed"
	OutcomeRetired     Outcome = "retired"
	OutcomeWalkover    Outcome = "walkover"
	OutcomeUnparseable Outcome = "unparseable"
)

// ---- Input tables ----

// PlayerIdentity is one row of the player identity table. Names may not
// contain the head-to-head pair separator "|" (0x7C in validator tags,
// where a bare pipe means "or").
type PlayerIdentity struct {
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name" validate:"required,excludes=0x7C"`
	Country string `json:"country,omitempty"`
}

// MatchRaw is one historical match row as ingested. Dates are YYYYMMDD integers.
type MatchRaw struct {
	Row int `json:"-"` // position in the input table

	TourneyName  string  `json:"tourney_name" validate:"required"`
	TourneyLevel string  `json:"tourney_level,omitempty"`
	TourneyDate  int     `json:"tourney_date" validate:"min=18770101,max=29991231"`
	Surface      Surface `json:"surface"`
	Round        string  `json:"round" validate:"required"`
	BestOf       *int    `json:"best_of" validate:"omitempty,oneof=3 5"`

	WinnerID      string   `json:"winner_id" validate:"required"`
	WinnerName    string   `json:"winner_name" validate:"required,excludes=0x7C"`
	WinnerCountry string   `json:"winner_ioc,omitempty"`
	WinnerAge     *float64 `json:"winner_age"`
	WinnerRank    *int     `json:"winner_rank" validate:"omitempty,min=1"`

	LoserID      string   `json:"loser_id" validate:"required,nefield=WinnerID"`
	LoserName    string   `json:"loser_name" validate:"required,excludes=0x7C,nefield=WinnerName"`
	LoserCountry string   `json:"loser_ioc,omitempty"`
	LoserAge     *float64 `json:"loser_age"`
	LoserRank    *int     `json:"loser_rank" validate:"omitempty,min=1"`

	Score   string `json:"score"`
	Minutes *int   `json:"minutes" validate:"omitempty,min=0"`

	WBpSaved *int `json:"w_bpSaved" validate:"omitempty,min=0"`
	WBpFaced *int `json:"w_bpFaced" validate:"omitempty,min=0"`
	LBpSaved *int `json:"l_bpSaved" validate:"omitempty,min=0"`
	LBpFaced *int `json:"l_bpFaced" validate:"omitempty,min=0"`
}

// Year returns the calendar year of the tournament date.
func (m MatchRaw) Year() int { return DateYear(m.TourneyDate) }

// DateYear extracts the year from a YYYYMMDD integer.
func DateYear(date int) int { return date / 10000 }

// ---- Parsed score ----

// Tiebreak holds the points of a set tiebreak. SetLoserPoints comes straight
// from the "(n)" notation; SetWinnerPoints is inferred from Target.
// AltSetWinnerPoints is set only when the target could not be resolved from
// notation.
type Tiebreak struct {
	Target             int  `json:"target"`
	SetLoserPoints     int  `json:"set_loser_points"`
	SetWinnerPoints    int  `json:"set_winner_points"`
	AltSetWinnerPoints *int `json:"alt_set_winner_points,omitempty"`
}

// SetScore is one set from the match winner's point of view.
type SetScore struct {
	WinnerGames int       `json:"winner_games"`
	LoserGames  int       `json:"loser_games"`
	Tiebreak    *Tiebreak `json:"tiebreak"`
	Complete    bool      `json:"complete"`
}

// WonByWinner reports whether the match winner took this set.
func (s SetScore) WonByWinner() bool { return s.Complete && s.WinnerGames > s.LoserGames }

// WonByLoser reports whether the match loser took this set.
func (s SetScore) WonByLoser() bool { return s.Complete && s.LoserGames > s.WinnerGames }

// Margin is the absolute game difference of the set.
func (s SetScore) Margin() int {
	if s.WinnerGames > s.LoserGames {
		return s.WinnerGames - s.LoserGames
	}
	return s.LoserGames - s.WinnerGames
}

// ParsedScore is the structured form of a raw score string.
type ParsedScore struct {
	Sets              []SetScore `json:"sets"`
	Outcome           Outcome    `json:"outcome"`
	Marker            string     `json:"marker,omitempty"`
	AmbiguousTiebreak bool       `json:"ambiguous_tiebreak"`
}

// IsComplete reports whether the match was played to its natural end.
func (p ParsedScore) IsComplete() bool { return p.Outcome == OutcomeCompleted }

// CompletedSets returns the sets that were played to a result.
func (p ParsedScore) CompletedSets() []SetScore {
	out := make([]SetScore, 0, len(p.Sets))
	for _, s := range p.Sets {
		if s.Complete {
			out = append(out, s)
		}
	}
	return out
}

func (p ParsedScore) WinnerSets() int {
	n := 0
	for _, s := range p.Sets {
		if s.WonByWinner() {
			n++
		}
	}
	return n
}

func (p ParsedScore) LoserSets() int {
	n := 0
	for _, s := range p.Sets {
		if s.WonByLoser() {
			n++
		}
	}
	return n
}

// WinnerGames sums the winner's games over every set, including an
// unfinished trailing set.
func (p ParsedScore) WinnerGames() int {
	n := 0
	for _, s := range p.Sets {
		n += s.WinnerGames
	}
	return n
}

func (p ParsedScore) LoserGames() int {
	n := 0
	for _, s := range p.Sets {
		n += s.LoserGames
	}
	return n
}

// TiebreakCount counts sets carrying tiebreak notation.
func (p ParsedScore) TiebreakCount() int {
	n := 0
	for _, s := range p.Sets {
		if s.Tiebreak != nil {
			n++
		}
	}
	return n
}

// FinalSetTiebreak reports whether a completed match was decided in a
// tiebreak in its last set.
func (p ParsedScore) FinalSetTiebreak() bool {
	if !p.IsComplete() || len(p.Sets) == 0 {
		return false
	}
	return p.Sets[len(p.Sets)-1].Tiebreak != nil
}
