package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-tennis-metrics/internal/network"
)

var (
	netPreset      string
	netList        bool
	netOut         string
	netMinYear     int
	netMaxYear     int
	netTournaments []string
	netRounds      []string
	netPlayers     []string
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Build a player network graph from stored matches",
	Long: `Build a {nodes, edges, metadata} graph of the matches selected by a preset
or by filter flags. Nodes carry subset and career statistics, edges are
head-to-head records restricted to the subset.

Output goes to stdout unless --out is given; a .zst suffix compresses it.

Examples:
  tennismetrics network --list
  tennismetrics network --preset wimbledon_finals_1982 --out wimbledon.json
  tennismetrics network --from 2010 --tournament "US Open" --round SF --round F`,
	Args: cobra.NoArgs,
	RunE: runNetwork,
}

func init() {
	f := networkCmd.Flags()
	f.StringVar(&netPreset, "preset", "", "standard dataset name (see --list)")
	f.BoolVar(&netList, "list", false, "list presets and exit")
	f.StringVarP(&netOut, "out", "o", "", "output file (.json or .json.zst)")
	f.IntVar(&netMinYear, "from", 0, "first match year")
	f.IntVar(&netMaxYear, "to", 0, "last match year")
	f.StringArrayVar(&netTournaments, "tournament", nil, "canonical tournament name (repeatable)")
	f.StringArrayVar(&netRounds, "round", nil, "round code, e.g. F, SF, QF (repeatable)")
	f.StringArrayVar(&netPlayers, "player", nil, "player id (repeatable)")
	networkCmd.MarkFlagsMutuallyExclusive("preset", "from")
	networkCmd.MarkFlagsMutuallyExclusive("preset", "to")
	networkCmd.MarkFlagsMutuallyExclusive("preset", "tournament")
	networkCmd.MarkFlagsMutuallyExclusive("preset", "round")
	networkCmd.MarkFlagsMutuallyExclusive("preset", "player")
}

func runNetwork(cmd *cobra.Command, args []string) error {
	if netList {
		for _, p := range network.Presets() {
			fmt.Printf("%-28s %s\n", p.Name, p.Description)
		}
		return nil
	}

	var preset network.Preset
	if netPreset != "" {
		p, ok := network.LookupPreset(netPreset)
		if !ok {
			return fmt.Errorf("unknown preset %q (see --list)", netPreset)
		}
		preset = p
	} else {
		preset = network.Preset{
			Name: "custom",
			Filter: network.Filter{
				MinYear:     netMinYear,
				MaxYear:     netMaxYear,
				Tournaments: netTournaments,
				Rounds:      netRounds,
				Players:     netPlayers,
			},
		}
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	matches, err := db.AllMatches()
	if err != nil {
		return fmt.Errorf("load matches: %w", err)
	}
	careers, err := db.AllCareers()
	if err != nil {
		return fmt.Errorf("load careers: %w", err)
	}

	g := preset.Build(matches, careers)
	logger.Info("network built",
		zap.String("name", g.Metadata.Name),
		zap.Int("matches", g.Metadata.TotalMatches),
		zap.Int("players", g.Metadata.TotalPlayers),
		zap.Int("matchups", g.Metadata.TotalMatchups),
	)
	if !g.Consistent() {
		logger.Warn("network metadata disagrees with nodes or edges", zap.String("name", g.Metadata.Name))
	}

	if netOut == "" {
		return writeJSON(os.Stdout, g)
	}
	if err := writeJSONFile(netOut, g); err != nil {
		return err
	}
	cOK.Fprintf(os.Stderr, "wrote %s: %d players, %d matchups\n", netOut, g.Metadata.TotalPlayers, g.Metadata.TotalMatchups)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeJSONFile writes v to path, zstd-compressed when path ends in .zst.
func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".zst") {
		if err := writeJSON(f, v); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return f.Close()
	}

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("zstd: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(v); err != nil {
		enc.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("zstd close: %w", err)
	}
	return f.Close()
}
