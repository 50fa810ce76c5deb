package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportDir  string
	exportZstd bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every stored output table as JSON files",
	Long: `Write the latest build to a directory, one JSON file per table:

  run.json               run id, source and formula versions, diagnostics
  matches_enriched.json  every valid match with parsed score and enrichment
  player_metrics.json    career metrics per player
  head_to_head.json      one record per pair, with splits
  nailbiters.json        Nailbiter Index leaderboard
  dominance.json         Dominance Index leaderboard

With --zstd every file gets a .zst suffix and is compressed.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "export", "output directory")
	exportCmd.Flags().BoolVar(&exportZstd, "zstd", false, "compress every file with zstd")
}

func runExport(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.LatestRun()
	if err != nil {
		return fmt.Errorf("latest run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("nothing to export: run 'tennismetrics build' first")
	}
	matches, err := db.AllMatches()
	if err != nil {
		return fmt.Errorf("load matches: %w", err)
	}
	careers, err := db.AllCareers()
	if err != nil {
		return fmt.Errorf("load careers: %w", err)
	}
	h2h, err := db.AllHeadToHead()
	if err != nil {
		return fmt.Errorf("load h2h: %w", err)
	}
	nailbiters, err := db.Nailbiters(0, 0, 0)
	if err != nil {
		return fmt.Errorf("load nailbiters: %w", err)
	}
	dominance, err := db.Dominance("", 0)
	if err != nil {
		return fmt.Errorf("load dominance: %w", err)
	}

	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", exportDir, err)
	}
	files := []struct {
		name string
		v    any
	}{
		{"run", run},
		{"matches_enriched", matches},
		{"player_metrics", careers},
		{"head_to_head", h2h},
		{"nailbiters", nailbiters},
		{"dominance", dominance},
	}
	for _, f := range files {
		path := filepath.Join(exportDir, f.name+".json")
		if exportZstd {
			path += ".zst"
		}
		if err := writeJSONFile(path, f.v); err != nil {
			return err
		}
		logger.Debug("exported", zap.String("path", path))
	}
	cOK.Fprintf(os.Stdout, "exported run %s to %s (%d files)\n", run.ID, exportDir, len(files))
	return nil
}
