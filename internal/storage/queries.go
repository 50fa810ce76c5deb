package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pable/go-tennis-metrics/internal/h2h"
	"github.com/pable/go-tennis-metrics/internal/model"
	"github.com/pable/go-tennis-metrics/internal/pipeline"
)

// Run describes one stored build.
type Run struct {
	ID          string               `json:"id"`
	CreatedAt   time.Time            `json:"created_at"`
	Source      string               `json:"source"`
	NBIVersion  string               `json:"nbi_version"`
	GSDIVersion string               `json:"gsdi_version"`
	Diagnostics pipeline.Diagnostics `json:"diagnostics"`
}

// NewRun stamps a fresh run id.
func NewRun(source, nbiVersion, gsdiVersion string) Run {
	return Run{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		Source:      source,
		NBIVersion:  nbiVersion,
		GSDIVersion: gsdiVersion,
	}
}

// outputTables are cleared before a rebuild, children first.
var outputTables = []string{
	"head_to_head_splits", "head_to_head", "player_metrics", "players",
	"matches_enriched", "nailbiters", "dominance",
}

// SaveResult replaces every output table with res in a single transaction
// and records the run.
func (db *DB) SaveResult(run Run, res *pipeline.Result) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range outputTables {
		if _, err := tx.Exec("DELETE FROM " + t); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}

	run.Diagnostics = res.Diagnostics
	if err := insertRun(tx, run); err != nil {
		return err
	}
	if err := insertCareers(tx, res.Careers); err != nil {
		return err
	}
	if err := insertMatches(tx, res.Enriched); err != nil {
		return err
	}
	if err := insertHeadToHead(tx, res.H2H.Records()); err != nil {
		return err
	}
	if err := insertNailbiters(tx, res.Nailbiters); err != nil {
		return err
	}
	if err := insertDominance(tx, res.Dominance); err != nil {
		return err
	}
	return tx.Commit()
}

func insertRun(tx *sql.Tx, run Run) error {
	diag, err := json.Marshal(run.Diagnostics)
	if err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}
	d := run.Diagnostics
	_, err = tx.Exec(`
		INSERT OR REPLACE INTO runs(
			id, created_at, source, rows_total, rows_valid, rows_invalid,
			parse_failures, ambiguous_tiebreaks, retirements, walkovers,
			nbi_version, gsdi_version, diagnostics
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.CreatedAt.Format(time.RFC3339), run.Source,
		d.RowsTotal, d.RowsValid, d.RowsInvalid,
		d.ParseFailures, d.AmbiguousTiebreaks, d.Retirements, d.Walkovers,
		run.NBIVersion, run.GSDIVersion, string(diag),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func insertCareers(tx *sql.Tx, careers []model.PlayerCareerMetrics) error {
	pstmt, err := tx.Prepare(`INSERT OR REPLACE INTO players(id, name, country) VALUES (?,?,?)`)
	if err != nil {
		return err
	}
	defer pstmt.Close()

	mstmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO player_metrics(
			player_id, player_name, country, total_matches, total_wins,
			win_pct, gs_titles, gs_win_pct, peak_ranking, data
		) VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer mstmt.Close()

	for _, c := range careers {
		if _, err := pstmt.Exec(c.PlayerID, c.PlayerName, c.Country); err != nil {
			return fmt.Errorf("insert player %s: %w", c.PlayerID, err)
		}
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		_, err = mstmt.Exec(
			c.PlayerID, c.PlayerName, c.Country, c.TotalMatches, c.TotalWins,
			c.WinPct, c.GSTitles, c.GSWinPct, c.PeakRanking, string(data),
		)
		if err != nil {
			return fmt.Errorf("insert player_metrics for %s: %w", c.PlayerID, err)
		}
	}
	return nil
}

func insertMatches(tx *sql.Tx, matches []model.MatchEnriched) error {
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO matches_enriched(
			row_idx, tourney_name, tourney_date, year, round, surface,
			winner_id, winner_name, loser_id, loser_name, score, outcome,
			is_grand_slam, grand_slam_name, minutes, comeback_score, data
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range matches {
		m := &matches[i]
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		_, err = stmt.Exec(
			m.Row, m.TourneyName, m.TourneyDate, m.MatchYear, m.Round, string(m.Surface),
			m.WinnerID, m.WinnerName, m.LoserID, m.LoserName, m.Score, string(m.Outcome),
			boolInt(m.IsGrandSlam), m.GrandSlamName, m.Minutes, m.ComebackScore, string(data),
		)
		if err != nil {
			return fmt.Errorf("insert matches_enriched row %d: %w", m.Row, err)
		}
	}
	return nil
}

func insertHeadToHead(tx *sql.Tx, recs []model.HeadToHeadRecord) error {
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO head_to_head(
			pair_key, player1, player2, player1_id, player2_id,
			total_matches, player1_wins, player2_wins, first_meeting, last_meeting
		) VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	split, err := tx.Prepare(`
		INSERT OR REPLACE INTO head_to_head_splits(pair_key, kind, name, total, p1_wins, p2_wins)
		VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer split.Close()

	for _, r := range recs {
		_, err := stmt.Exec(
			r.Key, r.Player1, r.Player2, r.Player1ID, r.Player2ID,
			r.TotalMatches, r.Player1Wins, r.Player2Wins, r.FirstMeeting, r.LastMeeting,
		)
		if err != nil {
			return fmt.Errorf("insert head_to_head %s: %w", r.Key, err)
		}
		for kind, splits := range map[string]map[string]model.SplitRecord{
			splitSurface:    r.Surfaces,
			splitTournament: r.Tournaments,
		} {
			for name, s := range splits {
				if _, err := split.Exec(r.Key, kind, name, s.Total, s.P1Wins, s.P2Wins); err != nil {
					return fmt.Errorf("insert head_to_head_splits %s: %w", r.Key, err)
				}
			}
		}
	}
	return nil
}

func insertNailbiters(tx *sql.Tx, entries []model.NailbiterEntry) error {
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO nailbiters(rank, tournament, year, round, winner, loser, score, nbi, nbi_100, data)
		VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		_, err = stmt.Exec(e.Rank, e.GrandSlam, e.Year, e.Round, e.Winner, e.Loser, e.Score, e.NBI, e.NBI100, string(data))
		if err != nil {
			return fmt.Errorf("insert nailbiters rank %d: %w", e.Rank, err)
		}
	}
	return nil
}

func insertDominance(tx *sql.Tx, entries []model.DominanceEntry) error {
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO dominance(rank, player_id, player, tournament, year, dominance_score, sets_won, sets_lost, data)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		_, err = stmt.Exec(e.Rank, e.PlayerID, e.Player, e.Tournament, e.Year, e.DominanceScore, e.SetsWon, e.SetsLost, string(data))
		if err != nil {
			return fmt.Errorf("insert dominance rank %d: %w", e.Rank, err)
		}
	}
	return nil
}

// LatestRun returns the most recent run, or nil when the store is empty.
func (db *DB) LatestRun() (*Run, error) {
	var r Run
	var created, diag string
	err := db.conn.QueryRow(`
		SELECT id, created_at, source, nbi_version, gsdi_version, diagnostics
		FROM runs ORDER BY created_at DESC LIMIT 1`).
		Scan(&r.ID, &created, &r.Source, &r.NBIVersion, &r.GSDIVersion, &diag)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("run %s created_at: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(diag), &r.Diagnostics); err != nil {
		return nil, fmt.Errorf("run %s diagnostics: %w", r.ID, err)
	}
	return &r, nil
}

// CareerSorts maps the accepted --sort values to ORDER BY clauses.
var CareerSorts = map[string]string{
	"name":    "player_name ASC, player_id ASC",
	"matches": "total_matches DESC, player_name ASC",
	"wins":    "total_wins DESC, player_name ASC",
	"win_pct": "win_pct IS NULL, win_pct DESC, player_name ASC",
	"titles":  "gs_titles DESC, player_name ASC",
	"peak":    "peak_ranking IS NULL, peak_ranking ASC, player_name ASC",
}

// ListCareers returns stored career rows with at least minMatches matches,
// ordered by one of CareerSorts. limit <= 0 means no limit.
func (db *DB) ListCareers(sortBy string, minMatches, limit int) ([]model.PlayerCareerMetrics, error) {
	order, ok := CareerSorts[sortBy]
	if !ok {
		return nil, fmt.Errorf("unknown sort %q", sortBy)
	}
	if limit <= 0 {
		limit = -1
	}
	return scanJSON[model.PlayerCareerMetrics](db.conn.Query(
		`SELECT data FROM player_metrics WHERE total_matches >= ? ORDER BY `+order+` LIMIT ?`,
		minMatches, limit))
}

// BreakthroughSorts maps the accepted breakthrough --sort values to ORDER BY
// clauses over the first-title fields of the data document.
var BreakthroughSorts = map[string]string{
	"matches": "json_extract(data, '$.matches_before_first_gs') DESC, player_name ASC",
	"years":   "json_extract(data, '$.years_to_first_gs') DESC, player_name ASC",
	"age":     "json_extract(data, '$.first_gs_title_age') IS NULL, json_extract(data, '$.first_gs_title_age') DESC, player_name ASC",
	"win_pct": "json_extract(data, '$.win_pct_before_first_gs') IS NULL, json_extract(data, '$.win_pct_before_first_gs') ASC, player_name ASC",
	"date":    "json_extract(data, '$.first_gs_title_date') ASC, player_name ASC",
}

// Breakthroughs returns Grand Slam champions ordered by the road to their
// first title; the default "matches" puts the longest road first.
// limit <= 0 means no limit.
func (db *DB) Breakthroughs(sortBy string, limit int) ([]model.PlayerCareerMetrics, error) {
	order, ok := BreakthroughSorts[sortBy]
	if !ok {
		return nil, fmt.Errorf("unknown sort %q", sortBy)
	}
	if limit <= 0 {
		limit = -1
	}
	return scanJSON[model.PlayerCareerMetrics](db.conn.Query(
		`SELECT data FROM player_metrics WHERE gs_titles > 0 ORDER BY `+order+` LIMIT ?`, limit))
}

// FindCareers returns players whose name contains query (case-insensitive)
// or whose id equals it.
func (db *DB) FindCareers(query string) ([]model.PlayerCareerMetrics, error) {
	return scanJSON[model.PlayerCareerMetrics](db.conn.Query(`
		SELECT data FROM player_metrics
		WHERE player_id = ? OR player_name LIKE ?
		ORDER BY player_id = ? DESC, total_matches DESC, player_name ASC`,
		query, "%"+query+"%", query))
}

// PlayerMatches returns a player's stored matches, most recent first.
// limit <= 0 means no limit.
func (db *DB) PlayerMatches(playerID string, limit int) ([]model.MatchEnriched, error) {
	if limit <= 0 {
		limit = -1
	}
	return scanMatches(db.conn.Query(`
		SELECT row_idx, data FROM matches_enriched
		WHERE winner_id = ? OR loser_id = ?
		ORDER BY tourney_date DESC, row_idx DESC LIMIT ?`,
		playerID, playerID, limit))
}

const (
	splitSurface    = "surface"
	splitTournament = "tournament"
)

// HeadToHead looks a pair up in either order. It returns nil when the two
// never met.
func (db *DB) HeadToHead(a, b string) (*model.HeadToHeadRecord, error) {
	var r model.HeadToHeadRecord
	err := db.conn.QueryRow(`
		SELECT pair_key, player1, player2, player1_id, player2_id,
		       total_matches, player1_wins, player2_wins, first_meeting, last_meeting
		FROM head_to_head WHERE pair_key = ?`, h2h.Key(a, b)).
		Scan(&r.Key, &r.Player1, &r.Player2, &r.Player1ID, &r.Player2ID,
			&r.TotalMatches, &r.Player1Wins, &r.Player2Wins, &r.FirstMeeting, &r.LastMeeting)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := db.loadSplits(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *DB) loadSplits(r *model.HeadToHeadRecord) error {
	rows, err := db.conn.Query(`
		SELECT kind, name, total, p1_wins, p2_wins
		FROM head_to_head_splits WHERE pair_key = ? ORDER BY kind, name`, r.Key)
	if err != nil {
		return err
	}
	defer rows.Close()

	r.Surfaces = make(map[string]model.SplitRecord)
	r.Tournaments = make(map[string]model.SplitRecord)
	for rows.Next() {
		var kind, name string
		var s model.SplitRecord
		if err := rows.Scan(&kind, &name, &s.Total, &s.P1Wins, &s.P2Wins); err != nil {
			return err
		}
		if kind == splitSurface {
			r.Surfaces[name] = s
		} else {
			r.Tournaments[name] = s
		}
	}
	return rows.Err()
}

// Nailbiters returns the stored NBI leaderboard, optionally for one year
// range (zero bounds are open). limit <= 0 means no limit.
func (db *DB) Nailbiters(minYear, maxYear, limit int) ([]model.NailbiterEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	if maxYear <= 0 {
		maxYear = 9999
	}
	return scanJSON[model.NailbiterEntry](db.conn.Query(`
		SELECT data FROM nailbiters WHERE year BETWEEN ? AND ? ORDER BY rank LIMIT ?`,
		minYear, maxYear, limit))
}

// Dominance returns the stored GSDI leaderboard, optionally for one slam.
// limit <= 0 means no limit.
func (db *DB) Dominance(tournament string, limit int) ([]model.DominanceEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	return scanJSON[model.DominanceEntry](db.conn.Query(`
		SELECT data FROM dominance WHERE ? = '' OR tournament = ? ORDER BY rank LIMIT ?`,
		tournament, tournament, limit))
}

// QueryRaw runs an arbitrary query and returns every value as text.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

// Clear deletes every run and output row but keeps the schema.
func (db *DB) Clear() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, t := range append(outputTables, "runs") {
		if _, err := tx.Exec("DELETE FROM " + t); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}
	return tx.Commit()
}

// scanJSON decodes a single-column result set of JSON documents.
func scanJSON[T any](rows *sql.Rows, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
