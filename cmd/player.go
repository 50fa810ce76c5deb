package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-tennis-metrics/internal/model"
	"github.com/pable/go-tennis-metrics/internal/report"
	"github.com/pable/go-tennis-metrics/internal/storage"
)

var playerRecent int

var playerCmd = &cobra.Command{
	Use:   "player <name-or-id>",
	Short: "Show one player's career card",
	Long: `Show the career card of a player: record, majors, surfaces, results
against top-ranked opponents, the road to the first major and recent matches.

The argument matches an exact player id or any part of the name.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlayer,
}

func init() {
	playerCmd.Flags().IntVar(&playerRecent, "recent", 10, "recent matches to list (0 = none)")
}

func runPlayer(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := resolvePlayer(db, args[0])
	if err != nil {
		return err
	}
	report.PrintPlayerCard(os.Stdout, *c)

	if playerRecent > 0 {
		ms, err := db.PlayerMatches(c.PlayerID, playerRecent)
		if err != nil {
			return fmt.Errorf("query matches: %w", err)
		}
		fmt.Println()
		report.PrintMatches(os.Stdout, ms, c.PlayerID)
	}
	return nil
}

// resolvePlayer finds exactly one stored player. Several name matches are
// an error listing the candidates, unless one is an exact id match.
func resolvePlayer(db *storage.DB, query string) (*model.PlayerCareerMetrics, error) {
	found, err := db.FindCareers(query)
	if err != nil {
		return nil, fmt.Errorf("find player: %w", err)
	}
	switch {
	case len(found) == 0:
		return nil, fmt.Errorf("no player matches %q", query)
	case len(found) == 1, found[0].PlayerID == query, found[0].PlayerName == query:
		return &found[0], nil
	}
	msg := fmt.Sprintf("%q matches %d players:", query, len(found))
	for i, c := range found {
		if i == 10 {
			msg += "\n  ..."
			break
		}
		msg += fmt.Sprintf("\n  %s  %s (%s)", c.PlayerID, c.PlayerName, c.Country)
	}
	return nil, fmt.Errorf("%s", msg)
}
