package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-tennis-metrics/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the metrics database",
	Long: `Run an arbitrary SQL query against the metrics database and print results as a table.

Schema overview:
  runs(id, created_at, source, rows_total, rows_valid, rows_invalid, parse_failures,
    ambiguous_tiebreaks, retirements, walkovers, nbi_version, gsdi_version, diagnostics)
  players(id, name, country)
  matches_enriched(row_idx, tourney_name, tourney_date, year, round, surface,
    winner_id, winner_name, loser_id, loser_name, score, outcome, is_grand_slam,
    grand_slam_name, minutes, comeback_score, data)
  player_metrics(player_id, player_name, country, total_matches, total_wins,
    win_pct, gs_titles, gs_win_pct, peak_ranking, data)
  head_to_head(pair_key, player1, player2, player1_id, player2_id, total_matches,
    player1_wins, player2_wins, first_meeting, last_meeting)
  head_to_head_splits(pair_key, kind, name, total, p1_wins, p2_wins)
  nailbiters(rank, tournament, year, round, winner, loser, score, nbi, nbi_100, data)
  dominance(rank, player_id, player, tournament, year, dominance_score,
    sets_won, sets_lost, data)

The data columns hold the full record as JSON; use json_extract to reach
any field, e.g.
  SELECT player_name, json_extract(data, '$.clay_win_pct') FROM player_metrics LIMIT 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(strings.Join(args, " "))
	if err != nil {
		return err
	}
	report.PrintRows(os.Stdout, cols, rows)
	return nil
}
