package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-tennis-metrics/internal/report"
)

var h2hCmd = &cobra.Command{
	Use:   "h2h <player-a> <player-b>",
	Short: "Show the head-to-head record of two players",
	Long: `Show the head-to-head record of two players with surface and tournament
splits. Argument order does not matter; each argument is resolved like the
player command (id or part of the name).`,
	Args: cobra.ExactArgs(2),
	RunE: runH2H,
}

func runH2H(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := resolvePlayer(db, args[0])
	if err != nil {
		return err
	}
	b, err := resolvePlayer(db, args[1])
	if err != nil {
		return err
	}
	rec, err := db.HeadToHead(a.PlayerName, b.PlayerName)
	if err != nil {
		return fmt.Errorf("query h2h: %w", err)
	}
	if rec == nil {
		fmt.Printf("%s and %s never met.\n", a.PlayerName, b.PlayerName)
		return nil
	}
	report.PrintHeadToHead(os.Stdout, *rec)
	return nil
}
