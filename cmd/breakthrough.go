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
	breakSort  string
	breakLimit int
)

var breakthroughCmd = &cobra.Command{
	Use:   "breakthrough",
	Short: "Rank Grand Slam champions by the road to their first major",
	Long: `List every stored Grand Slam champion with the matches, wins, years and
peak ranking before the first major title. The default order puts the
longest road first.`,
	Args: cobra.NoArgs,
	RunE: runBreakthrough,
}

func init() {
	sorts := make([]string, 0, len(storage.BreakthroughSorts))
	for k := range storage.BreakthroughSorts {
		sorts = append(sorts, k)
	}
	sort.Strings(sorts)
	breakthroughCmd.Flags().StringVar(&breakSort, "sort", "matches", "sort by: "+strings.Join(sorts, ", "))
	breakthroughCmd.Flags().IntVarP(&breakLimit, "limit", "n", 50, "max rows (0 = all)")
}

func runBreakthrough(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	champs, err := db.Breakthroughs(breakSort, breakLimit)
	if err != nil {
		return fmt.Errorf("list champions: %w", err)
	}
	if len(champs) == 0 {
		fmt.Println("No Grand Slam champions stored. Run 'tennismetrics build' first.")
		return nil
	}
	report.PrintBreakthroughs(os.Stdout, champs)
	return nil
}
