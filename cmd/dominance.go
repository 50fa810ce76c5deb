package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-tennis-metrics/internal/report"
)

var (
	gsdiLimit int
	gsdiSlam  string
	gsdiJSON  bool
)

var dominanceCmd = &cobra.Command{
	Use:   "dominance",
	Short: "Show the Grand Slam Dominance Index leaderboard",
	Long: `Show title-winning Grand Slam campaigns ranked by the Dominance Index:
sets, games and estimated points won, opponent quality and speed, plus
bonuses for a campaign without a dropped set and for wins over top-5
opponents.`,
	Args: cobra.NoArgs,
	RunE: runDominance,
}

func init() {
	dominanceCmd.Flags().IntVarP(&gsdiLimit, "limit", "n", 25, "max rows (0 = all)")
	dominanceCmd.Flags().StringVar(&gsdiSlam, "slam", "", `only this slam ("Australian Open", "Roland Garros", "Wimbledon", "US Open")`)
	dominanceCmd.Flags().BoolVar(&gsdiJSON, "json", false, "print JSON instead of a table")
}

func runDominance(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.Dominance(gsdiSlam, gsdiLimit)
	if err != nil {
		return fmt.Errorf("query dominance: %w", err)
	}
	if gsdiJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No campaigns stored. Run 'tennismetrics build' first.")
		return nil
	}
	report.PrintDominance(os.Stdout, entries)
	return nil
}
