package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-tennis-metrics/internal/report"
)

var (
	nbiLimit   int
	nbiMinYear int
	nbiMaxYear int
	nbiJSON    bool
)

var nailbitersCmd = &cobra.Command{
	Use:   "nailbiters",
	Short: "Show the Nailbiter Index leaderboard",
	Long: `Show Grand Slam finals and semifinals ranked by the Nailbiter Index, a
weighted blend of set closeness, comeback depth, lead changes, tiebreaks,
duration, break points saved and a final-set tiebreak.

Columns CLOSE..FSTB are the normalized sub-scores in [0,1]; NBI is on a
0-100 scale.`,
	Args: cobra.NoArgs,
	RunE: runNailbiters,
}

func init() {
	nailbitersCmd.Flags().IntVarP(&nbiLimit, "limit", "n", 25, "max rows (0 = all)")
	nailbitersCmd.Flags().IntVar(&nbiMinYear, "from", 0, "first year shown")
	nailbitersCmd.Flags().IntVar(&nbiMaxYear, "to", 0, "last year shown")
	nailbitersCmd.Flags().BoolVar(&nbiJSON, "json", false, "print JSON instead of a table")
}

func runNailbiters(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.Nailbiters(nbiMinYear, nbiMaxYear, nbiLimit)
	if err != nil {
		return fmt.Errorf("query nailbiters: %w", err)
	}
	if nbiJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No nailbiters stored. Run 'tennismetrics build' first.")
		return nil
	}
	report.PrintNailbiters(os.Stdout, entries)
	return nil
}
