package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/gamelens/internal/config"
)

var (
	// Global flags.
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "gamelens",
	Short: "Analyze chess games for move quality, aggression and phases",
	Long: `Gamelens replays PGN games, evaluates every position with a precomputed
evaluation database or a UCI engine, and reports move quality, aggression
and per-phase statistics for games and players.

Configuration is read from --config and GAMELENS_* environment variables,
for example GAMELENS_THRESHOLDS_BLUNDER=-250. A .env file in the working
directory is loaded first.

Examples:
  # Analyze a player's games with a local engine
  gamelens analyze games.pgn --user magnus --engine

  # Use the evaluation database, fall back to the engine
  gamelens analyze games.pgn --eval-db gs://my-bucket/evals --engine

  # Build the evaluation database
  gamelens evaldb build --source lichess_db_eval.jsonl.zst --output ./evals`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file (yaml, json or toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// newLogger returns a development logger with --verbose and a production
// logger otherwise.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func loadConfig() (config.Config, error) {
	return config.Load(configFile)
}

// signalContext returns a context cancelled on interrupt.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
