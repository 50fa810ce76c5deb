package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-tennis-metrics/internal/config"
	"github.com/pable/go-tennis-metrics/internal/storage"
)

var (
	dbPath     string
	configPath string
	verbose    bool

	cfg    *config.Config
	logger = zap.NewNop()
)

var (
	cOK    = color.New(color.FgGreen, color.Bold)
	cWarn  = color.New(color.FgYellow)
	cMuted = color.New(color.Faint)
)

var rootCmd = &cobra.Command{
	Use:   "tennismetrics",
	Short: "Tennis match history metrics tool",
	Long: `Build career, head-to-head and composite index tables from historical
tennis match results (tennis_atp / tennis_wta CSV layout) and query them.`,
	SilenceUsage:      true,
	PersistentPreRunE: bootstrap,
	PersistentPostRun: func(*cobra.Command, []string) { _ = logger.Sync() },
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := filepath.Join(mustUserHome(), ".tennismetrics", "tennis.db")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (falls back to $TENNIS_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(breakthroughCmd)
	rootCmd.AddCommand(h2hCmd)
	rootCmd.AddCommand(nailbitersCmd)
	rootCmd.AddCommand(dominanceCmd)
	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(dropCmd)
}

// bootstrap loads the configuration and builds the logger before any
// subcommand runs.
func bootstrap(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = c

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if verbose {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	lc := zap.NewDevelopmentConfig()
	lc.Level = level
	lc.DisableStacktrace = !verbose
	l, err := lc.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	logger = l.Named(cmd.Name())
	logger.Debug("config loaded", zap.String("db", dbPath), zap.Int("workers", cfg.Workers))
	return nil
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// openDB opens the store, creating its directory on first use.
func openDB() (*storage.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}
