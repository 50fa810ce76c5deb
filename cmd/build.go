package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-tennis-metrics/internal/ingest"
	"github.com/pable/go-tennis-metrics/internal/metrics"
	"github.com/pable/go-tennis-metrics/internal/model"
	"github.com/pable/go-tennis-metrics/internal/pipeline"
	"github.com/pable/go-tennis-metrics/internal/report"
	"github.com/pable/go-tennis-metrics/internal/storage"
)

var (
	buildMatches    []string
	buildPlayers    string
	buildIssues     int
	buildDryRun     bool
	buildAllPlayers bool
)

var buildCmd = &cobra.Command{
	Use:   "build --matches <csv> [--matches <csv> ...] [--players <csv>]",
	Short: "Ingest match CSVs and rebuild every output table",
	Long: `Reads one or more match tables in the tennis_atp column layout (plain,
.zst, .gz or .bz2), validates and parses every row, then rebuilds the
enriched match, career, head-to-head, Nailbiter and Dominance tables in the
database. The previous build is replaced.

Without --players the identity table is derived from the winner/loser
columns of the match files. With --players only identities that appear in
at least one match row are kept; --all-players keeps every identity, so
players without matches still get a (zero) career record.

Example:
  tennismetrics build --matches atp_matches_2023.csv --matches atp_matches_2024.csv.zst \
      --players atp_players.csv`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringArrayVar(&buildMatches, "matches", nil, "match CSV file (repeatable)")
	buildCmd.Flags().StringVar(&buildPlayers, "players", "", "player identity CSV")
	buildCmd.Flags().IntVar(&buildIssues, "issues", 20, "diagnostics rows to print (0 = all)")
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "run the pipeline without writing the database")
	buildCmd.Flags().BoolVar(&buildAllPlayers, "all-players", false, "keep identities that appear in no match row")
	_ = buildCmd.MarkFlagRequired("matches")
}

func runBuild(cmd *cobra.Command, args []string) error {
	in, err := readInput(buildMatches, buildPlayers, buildAllPlayers)
	if err != nil {
		return err
	}

	rec := metrics.New()
	res, err := pipeline.Run(cmd.Context(), in, pipeline.Options{
		Logger:     logger,
		Metrics:    rec,
		Workers:    cfg.Workers,
		Parser:     cfg.ParserOptions(),
		Tournament: cfg.TournamentOptions(),
		NBI:        cfg.NBIOptions(),
		GSDI:       cfg.GSDIOptions(),
	})
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	report.PrintRunSummary(os.Stdout, res.Diagnostics, len(res.Careers), res.H2H.Len(), len(res.Nailbiters), len(res.Dominance))
	report.PrintIssues(os.Stdout, res.Diagnostics.Issues, buildIssues)

	if err := rec.WriteTextfile(cfg.MetricsTextfile); err != nil {
		logger.Warn("metrics textfile not written", zap.Error(err))
	}

	if buildDryRun {
		cMuted.Fprintln(os.Stdout, "dry run: database not written")
		return nil
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	run := storage.NewRun(strings.Join(buildMatches, ","), cfg.NBI.Weights.Version, cfg.GSDI.Weights.Version)
	if err := db.SaveResult(run, res); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	cOK.Fprintf(os.Stdout, "stored run %s in %s\n", run.ID, dbPath)
	return nil
}

// readInput reads every match file in order, numbering rows across files,
// and the player file when given.
func readInput(matchPaths []string, playersPath string, allPlayers bool) (pipeline.Input, error) {
	var in pipeline.Input
	offset := 0
	for _, p := range matchPaths {
		got, err := readMatchFile(p)
		if err != nil {
			return in, err
		}
		for _, m := range got.Rows {
			m.Row += offset
			in.Matches = append(in.Matches, m)
		}
		for _, re := range got.Rejected {
			re.Row += offset
			in.Rejected = append(in.Rejected, re)
		}
		offset += got.Total
		logger.Info("match file read", zap.String("path", p), zap.Int("rows", got.Total), zap.Int("rejected", len(got.Rejected)))
	}

	if playersPath == "" {
		in.Players = ingest.DerivePlayers(in.Matches)
		cWarn.Fprintf(os.Stderr, "no --players file: derived %d identities from match rows\n", len(in.Players))
		return in, nil
	}
	f, err := ingest.OpenFile(playersPath)
	if err != nil {
		return in, fmt.Errorf("open players: %w", err)
	}
	defer f.Close()
	players, err := ingest.ReadPlayers(f)
	if err != nil {
		return in, fmt.Errorf("read %s: %w", playersPath, err)
	}
	if allPlayers {
		in.Players = players
		return in, nil
	}
	in.Players = restrictPlayers(players, in.Matches)
	if dropped := len(players) - len(in.Players); dropped > 0 {
		logger.Info("identities without matches skipped", zap.Int("skipped", dropped), zap.Int("kept", len(in.Players)))
	}
	return in, nil
}

func readMatchFile(path string) (*ingest.Matches, error) {
	f, err := ingest.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open matches: %w", err)
	}
	defer f.Close()
	got, err := ingest.ReadMatches(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return got, nil
}

// restrictPlayers keeps the identities that appear in matches. Full player
// files list tens of thousands of people who never played a tour match, and
// each would otherwise get an empty career row. Identities skipped here are
// not validated either.
func restrictPlayers(players []model.PlayerIdentity, matches []model.MatchRaw) []model.PlayerIdentity {
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		seen[m.WinnerID] = true
		seen[m.LoserID] = true
	}
	out := players[:0:0]
	for _, p := range players {
		if seen[p.ID] {
			out = append(out, p)
		}
	}
	return out
}
