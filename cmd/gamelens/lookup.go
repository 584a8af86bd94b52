package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/gamelens/internal/engine"
	"github.com/discochess/gamelens/internal/engine/lookup"
	"github.com/discochess/gamelens/internal/report"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [FEN]",
	Short: "Look up the evaluation of a position in the database",
	Long: `Look up the stored evaluation of a chess position given in FEN notation.

The FEN string should include at least the piece placement and side to move.
Castling rights and en passant square are optional. The score is relative to
the side to move.

Examples:
  # Starting position
  gamelens lookup --eval-db ./evals "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -"

  # After 1.e4
  gamelens lookup --eval-db ./evals "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3"`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

var (
	lookupDB   string
	outputJSON bool
	showTiming bool
)

func init() {
	lookupCmd.Flags().StringVar(&lookupDB, "eval-db", "./evals", "evaluation database location")
	lookupCmd.Flags().BoolVar(&outputJSON, "json", false, "output result as JSON")
	lookupCmd.Flags().BoolVar(&showTiming, "timing", false, "show lookup timing")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := lookup.Open(ctx, lookupDB, 1, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	start := time.Now()
	ev, err := e.Lookup(ctx, args[0])
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return fmt.Errorf("position not found in database")
		}
		return fmt.Errorf("lookup failed: %w", err)
	}
	elapsed := time.Since(start)

	if outputJSON {
		out := struct {
			FEN string `json:"fen"`
			*engine.Evaluation
			Score     string `json:"score"`
			ElapsedMS *int64 `json:"elapsed_ms,omitempty"`
		}{FEN: args[0], Evaluation: ev, Score: ev.Score()}
		if showTiming {
			ms := elapsed.Milliseconds()
			out.ElapsedMS = &ms
		}
		return report.WriteJSON(os.Stdout, out)
	}

	fmt.Printf("FEN:   %s\n", args[0])
	fmt.Printf("Score: %s\n", ev.Score())
	fmt.Printf("Depth: %d\n", ev.Depth)
	if best := ev.BestMove(); best != "" {
		fmt.Printf("Best:  %s\n", best)
	}
	if showTiming {
		fmt.Printf("Time:  %s\n", elapsed)
	}
	return nil
}
