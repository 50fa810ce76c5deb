package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-tennis-metrics/internal/report"
	"github.com/pable/go-tennis-metrics/internal/storage"
)

var (
	playersSort  string
	playersMin   int
	playersLimit int
)

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List stored career metrics",
	Args:  cobra.NoArgs,
	RunE:  runPlayers,
}

func init() {
	sorts := make([]string, 0, len(storage.CareerSorts))
	for k := range storage.CareerSorts {
		sorts = append(sorts, k)
	}
	sort.Strings(sorts)
	playersCmd.Flags().StringVar(&playersSort, "sort", "matches", "sort by: "+strings.Join(sorts, ", "))
	playersCmd.Flags().IntVar(&playersMin, "min-matches", 1, "hide players with fewer matches")
	playersCmd.Flags().IntVarP(&playersLimit, "limit", "n", 50, "max rows (0 = all)")
}

func runPlayers(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	careers, err := db.ListCareers(playersSort, playersMin, playersLimit)
	if err != nil {
		return fmt.Errorf("list careers: %w", err)
	}
	if len(careers) == 0 {
		fmt.Println("No players stored. Run 'tennismetrics build' first.")
		return nil
	}
	report.PrintCareerTable(os.Stdout, careers)
	return nil
}
