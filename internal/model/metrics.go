package model

// ---- Derived tables ----

// MatchEnriched is one MatchRaw plus everything derived from its score, its
// tournament and (after the career pass) both players' career standing.
// Pointer fields are nil when the value is undefined for this match.
type MatchEnriched struct {
	MatchRaw

	Outcome           Outcome    `json:"outcome"`
	IsComplete        bool       `json:"is_complete"`
	ParseError        *string    `json:"parse_error"`
	AmbiguousTiebreak bool       `json:"ambiguous_tiebreak"`
	Sets              []SetScore `json:"sets"`

	WinnerSets       *int     `json:"winner_sets"`
	LoserSets        *int     `json:"loser_sets"`
	WinnerGames      *int     `json:"winner_games"`
	LoserGames       *int     `json:"loser_games"`
	TiebreaksCount   *int     `json:"tiebreaks_count"`
	SetMargins       []int    `json:"set_margins"`
	AvgSetMargin     *float64 `json:"avg_set_margin"`
	LeadChanges      *int     `json:"lead_changes"`
	ComebackScore    *int     `json:"comeback_score"`
	FinalSetTiebreak *bool    `json:"final_set_tiebreak"`
	BPSaved          *int     `json:"bp_saved"`
	BPFaced          *int     `json:"bp_faced"`
	BPSavedRatio     *float64 `json:"bp_saved_ratio"`

	IsGrandSlam    bool    `json:"is_grand_slam"`
	GrandSlamName  *string `json:"grand_slam_name"`
	TournamentKey  string  `json:"tournament_key"`
	IsFinal        bool    `json:"is_final"`
	IsSemifinal    bool    `json:"is_semifinal"`
	IsQuarterfinal bool    `json:"is_quarterfinal"`
	MatchYear      int     `json:"year"`

	WinnerCareerMatches *int  `json:"winner_career_matches"`
	WinnerGSTitles      *int  `json:"winner_gs_titles"`
	WinnerHasGSTitle    *bool `json:"winner_has_gs_title"`
	WinnerPeakRanking   *int  `json:"winner_peak_ranking"`
	LoserCareerMatches  *int  `json:"loser_career_matches"`
	LoserGSTitles       *int  `json:"loser_gs_titles"`
	LoserHasGSTitle     *bool `json:"loser_has_gs_title"`
	LoserPeakRanking    *int  `json:"loser_peak_ranking"`
}

// PlayerCareerMetrics is the career summary of one player. Percentages are
// on a 0-100 scale rounded to two decimals; dates are YYYYMMDD integers.
type PlayerCareerMetrics struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Country    string `json:"country"`

	FirstMatchDate  *int `json:"first_match_date"`
	LastMatchDate   *int `json:"last_match_date"`
	CareerStartYear *int `json:"career_start_year"`
	CareerEndYear   *int `json:"career_end_year"`
	CareerSpanYears *int `json:"career_span_years"`

	TotalMatches int      `json:"total_matches"`
	TotalWins    int      `json:"total_wins"`
	TotalLosses  int      `json:"total_losses"`
	WinPct       *float64 `json:"win_pct"`

	GSMatches       int      `json:"gs_matches"`
	GSWins          int      `json:"gs_wins"`
	GSLosses        int      `json:"gs_losses"`
	GSWinPct        *float64 `json:"gs_win_pct"`
	GSTitles        int      `json:"gs_titles"`
	GSFinals        int      `json:"gs_finals"`
	GSSemifinals    int      `json:"gs_semifinals"`
	GSQuarterfinals int      `json:"gs_quarterfinals"`

	FirstGSTitleDate     *int     `json:"first_gs_title_date"`
	FirstGSTitleYear     *int     `json:"first_gs_title_year"`
	FirstGSTitleAge      *float64 `json:"first_gs_title_age"`
	FirstGSTitleName     *string  `json:"first_gs_title_name"`
	MatchesBeforeFirstGS *int     `json:"matches_before_first_gs"`
	WinsBeforeFirstGS    *int     `json:"wins_before_first_gs"`
	WinPctBeforeFirstGS  *float64 `json:"win_pct_before_first_gs"`
	YearsToFirstGS       *int     `json:"years_to_first_gs"`
	PeakRankingBeforeGS  *int     `json:"peak_ranking_before_first_gs"`

	PeakRanking     *int `json:"peak_ranking"`
	PeakRankingDate *int `json:"peak_ranking_date"`

	HardMatches           int      `json:"hard_matches"`
	HardWins              int      `json:"hard_wins"`
	HardWinPct            *float64 `json:"hard_win_pct"`
	ClayMatches           int      `json:"clay_matches"`
	ClayWins              int      `json:"clay_wins"`
	ClayWinPct            *float64 `json:"clay_win_pct"`
	GrassMatches          int      `json:"grass_matches"`
	GrassWins             int      `json:"grass_wins"`
	GrassWinPct           *float64 `json:"grass_win_pct"`
	CarpetMatches         int      `json:"carpet_matches"`
	CarpetWins            int      `json:"carpet_wins"`
	CarpetWinPct          *float64 `json:"carpet_win_pct"`
	UnknownSurfaceMatches int      `json:"unknown_surface_matches"`

	Top5Matches  int      `json:"top5_matches"`
	Top5Wins     int      `json:"top5_wins"`
	Top5WinPct   *float64 `json:"top5_win_pct"`
	Top10Matches int      `json:"top10_matches"`
	Top10Wins    int      `json:"top10_wins"`
	Top10WinPct  *float64 `json:"top10_win_pct"`
	Top30Matches int      `json:"top30_matches"`
	Top30Wins    int      `json:"top30_wins"`
	Top30WinPct  *float64 `json:"top30_win_pct"`

	AvgOpponentRank     *float64 `json:"avg_opponent_rank"`
	UniqueOpponents     int      `json:"unique_opponents"`
	AvgMatchDuration    *float64 `json:"avg_match_duration"`
	TotalMatchMinutes   int      `json:"total_match_minutes"`
	MatchesWithDuration int      `json:"matches_with_duration"`

	HasGSTitle bool `json:"has_gs_title"`
	WasTop5    bool `json:"was_top_5"`
	WasTop10   bool `json:"was_top_10"`
}

// SurfaceCount returns matches and wins for one named surface bucket.
func (c PlayerCareerMetrics) SurfaceCount(s Surface) (matches, wins int) {
	switch s {
	case SurfaceHard:
		return c.HardMatches, c.HardWins
	case SurfaceClay:
		return c.ClayMatches, c.ClayWins
	case SurfaceGrass:
		return c.GrassMatches, c.GrassWins
	case SurfaceCarpet:
		return c.CarpetMatches, c.CarpetWins
	}
	return c.UnknownSurfaceMatches, 0
}

// SplitRecord is a win/loss tally between the two players of a pair.
type SplitRecord struct {
	Total  int `json:"total"`
	P1Wins int `json:"p1_wins"`
	P2Wins int `json:"p2_wins"`
}

// HeadToHeadRecord aggregates every meeting of one unordered player pair.
// Player1 sorts before Player2 byte-wise.
type HeadToHeadRecord struct {
	Key          string                 `json:"key"`
	Player1      string                 `json:"player1"`
	Player2      string                 `json:"player2"`
	Player1ID    string                 `json:"player1_id"`
	Player2ID    string                 `json:"player2_id"`
	TotalMatches int                    `json:"total_matches"`
	Player1Wins  int                    `json:"player1_wins"`
	Player2Wins  int                    `json:"player2_wins"`
	FirstMeeting int                    `json:"first_meeting"`
	LastMeeting  int                    `json:"last_meeting"`
	Surfaces     map[string]SplitRecord `json:"surfaces"`
	Tournaments  map[string]SplitRecord `json:"tournaments"`
}

// ---- Composite indices ----

// NailbiterComponents are the per-match sub-scores after normalization, each
// in [0,1], next to their weighted contributions.
type NailbiterComponents struct {
	SetCloseness     float64 `json:"set_closeness"`
	Comeback         float64 `json:"comeback"`
	LeadChanges      float64 `json:"lead_changes"`
	Tiebreaks        float64 `json:"tiebreaks"`
	Duration         float64 `json:"duration"`
	BPSaved          float64 `json:"bp_saved"`
	FinalSetTiebreak float64 `json:"final_set_tiebreak"`
}

// NailbiterEntry is one ranked Nailbiter Index row.
type NailbiterEntry struct {
	Rank           int      `json:"rank"`
	TourneyName    string   `json:"tournament"`
	GrandSlam      string   `json:"grand_slam"`
	TourneyDate    int      `json:"tourney_date"`
	Year           int      `json:"year"`
	Round          string   `json:"round"`
	Winner         string   `json:"winner"`
	Loser          string   `json:"loser"`
	Score          string   `json:"score"`
	NBI            float64  `json:"nbi"`
	NBI100         float64  `json:"nbi_100"`
	DramaTags      []string `json:"drama_tags"`
	WeightsVersion string   `json:"weights_version"`

	AvgSetMargin     float64  `json:"avg_set_margin"`
	ComebackScore    int      `json:"comeback_score"`
	LeadChanges      int      `json:"lead_changes"`
	TiebreaksCount   int      `json:"tiebreaks_count"`
	Minutes          *int     `json:"minutes"`
	MinutesPerSet    *float64 `json:"minutes_per_set"`
	BPSavedRatio     *float64 `json:"bp_saved_ratio"`
	FinalSetTiebreak bool     `json:"final_set_tiebreak"`

	Normalized NailbiterComponents `json:"normalized"`
	Weighted   NailbiterComponents `json:"weighted"`
}

// DominanceBreakdown is the weighted contribution of each GSDI term.
type DominanceBreakdown struct {
	SetsComponent     float64 `json:"sets_component"`
	GamesComponent    float64 `json:"games_component"`
	PointsComponent   float64 `json:"points_component"`
	OpponentComponent float64 `json:"opponent_component"`
	SpeedComponent    float64 `json:"speed_component"`
	PerfectBonus      float64 `json:"perfect_bonus"`
	Top5Bonus         float64 `json:"top5_bonus"`
}

// DominanceEntry is one Grand Slam campaign with its dominance score.
type DominanceEntry struct {
	Rank              int      `json:"rank"`
	PlayerID          string   `json:"player_id"`
	Player            string   `json:"player"`
	Tournament        string   `json:"tournament"`
	Year              int      `json:"year"`
	Champion          bool     `json:"champion"`
	DominanceScore    float64  `json:"dominance_score"`
	MatchesWon        int      `json:"matches_won"`
	SetsWon           int      `json:"sets_won"`
	SetsLost          int      `json:"sets_lost"`
	GamesWon          int      `json:"games_won"`
	GamesLost         int      `json:"games_lost"`
	SetsWonPct        float64  `json:"sets_won_pct"`
	GamesWonPct       float64  `json:"games_won_pct"`
	PointsWonPct      float64  `json:"points_won_pct"`
	PctTop30Opponents float64  `json:"pct_top30_opponents"`
	SpeedScore        float64  `json:"speed_score"`
	AvgMatchMinutes   *float64 `json:"avg_match_minutes"`
	Top5Wins          int      `json:"top5_wins"`
	PerfectCampaign   bool     `json:"perfect_campaign"`
	WeightsVersion    string   `json:"weights_version"`

	Breakdown DominanceBreakdown `json:"score_breakdown"`
}
