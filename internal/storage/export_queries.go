package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pable/go-tennis-metrics/internal/model"
)

// AllMatches returns every stored enriched match in input order, for the
// network builder and the JSON export.
func (db *DB) AllMatches() ([]model.MatchEnriched, error) {
	return scanMatches(db.conn.Query(`SELECT row_idx, data FROM matches_enriched ORDER BY row_idx`))
}

// AllCareers returns every stored career row ordered by name then id.
func (db *DB) AllCareers() ([]model.PlayerCareerMetrics, error) {
	return scanJSON[model.PlayerCareerMetrics](db.conn.Query(
		`SELECT data FROM player_metrics ORDER BY player_name, player_id`))
}

// CareersByID returns the career rows of the given players, ordered by
// name then id. Unknown ids are ignored.
func (db *DB) CareersByID(ids []string) ([]model.PlayerCareerMetrics, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return scanJSON[model.PlayerCareerMetrics](db.conn.Query(
		`SELECT data FROM player_metrics WHERE player_id IN (`+placeholders(len(ids))+`)
		 ORDER BY player_name, player_id`, args...))
}

// AllHeadToHead returns every stored pair with its splits, ordered by key.
func (db *DB) AllHeadToHead() ([]model.HeadToHeadRecord, error) {
	rows, err := db.conn.Query(`
		SELECT pair_key, player1, player2, player1_id, player2_id,
		       total_matches, player1_wins, player2_wins, first_meeting, last_meeting
		FROM head_to_head ORDER BY pair_key`)
	if err != nil {
		return nil, err
	}
	var out []model.HeadToHeadRecord
	byKey := make(map[string]int)
	for rows.Next() {
		var r model.HeadToHeadRecord
		if err := rows.Scan(&r.Key, &r.Player1, &r.Player2, &r.Player1ID, &r.Player2ID,
			&r.TotalMatches, &r.Player1Wins, &r.Player2Wins, &r.FirstMeeting, &r.LastMeeting); err != nil {
			rows.Close()
			return nil, err
		}
		r.Surfaces = make(map[string]model.SplitRecord)
		r.Tournaments = make(map[string]model.SplitRecord)
		byKey[r.Key] = len(out)
		out = append(out, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	splits, err := db.conn.Query(`SELECT pair_key, kind, name, total, p1_wins, p2_wins FROM head_to_head_splits`)
	if err != nil {
		return nil, err
	}
	defer splits.Close()
	for splits.Next() {
		var key, kind, name string
		var s model.SplitRecord
		if err := splits.Scan(&key, &kind, &name, &s.Total, &s.P1Wins, &s.P2Wins); err != nil {
			return nil, err
		}
		i, ok := byKey[key]
		if !ok {
			return nil, fmt.Errorf("split for unknown pair %q", key)
		}
		if kind == splitSurface {
			out[i].Surfaces[name] = s
		} else {
			out[i].Tournaments[name] = s
		}
	}
	return out, splits.Err()
}

// scanMatches decodes (row_idx, data) rows. Row is not part of the JSON
// document so it is restored from the key column.
func scanMatches(rows *sql.Rows, err error) ([]model.MatchEnriched, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MatchEnriched
	for rows.Next() {
		var idx int
		var raw string
		if err := rows.Scan(&idx, &raw); err != nil {
			return nil, err
		}
		var m model.MatchEnriched
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("decode match %d: %w", idx, err)
		}
		m.Row = idx
		out = append(out, m)
	}
	return out, rows.Err()
}

// placeholders returns a comma-separated string of n "?" for SQL IN clauses,
// e.g. placeholders(3) → "?,?,?".
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
