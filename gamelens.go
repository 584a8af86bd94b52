// Package gamelens analyzes chess games: it replays them, classifies the
// quality of every ply from engine evaluations, scores the aggression of
// each move, splits the game into phases and summarizes games and players.
//
// Example usage:
//
//	eng, err := uciengine.New("stockfish")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	book, err := theory.NewECO()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	a, err := gamelens.New(
//	    gamelens.WithEvaluator(eng),
//	    gamelens.WithBook(book),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Close()
//
//	report, err := a.AnalyzePGN(ctx, f, "magnus")
package gamelens

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/notnil/chess"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discochess/gamelens/internal/aggregate"
	"github.com/discochess/gamelens/internal/aggression"
	"github.com/discochess/gamelens/internal/config"
	"github.com/discochess/gamelens/internal/engine"
	"github.com/discochess/gamelens/internal/pgnio"
	"github.com/discochess/gamelens/internal/phase"
	"github.com/discochess/gamelens/internal/stats"
	"github.com/discochess/gamelens/internal/theory"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrNoEvaluator indicates no evaluator was provided.
	ErrNoEvaluator = errors.New("gamelens: no evaluator provided")

	// ErrClosed indicates the analyzer has been closed.
	ErrClosed = errors.New("gamelens: analyzer closed")
)

// Analyzer runs the analysis pipeline.
// An Analyzer is safe for concurrent use by multiple goroutines.
type Analyzer struct {
	evaluator engine.Evaluator
	book      theory.Book
	cfg       config.Config
	workers   int
	detector  *aggression.Detector
	segmenter *phase.Segmenter
	stats     stats.Collector
	logger    *zap.Logger
	closed    atomic.Bool
}

// New creates an Analyzer. The configuration is validated and a
// *config.Error returned for an invalid one.
func New(opts ...Option) (*Analyzer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}

	if o.workers != 0 {
		o.cfg.Workers = o.workers
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if o.evaluator == nil {
		return nil, ErrNoEvaluator
	}

	a := &Analyzer{
		evaluator: o.evaluator,
		book:      o.book,
		cfg:       o.cfg,
		workers:   o.cfg.Workers,
		detector:  aggression.NewDetector(o.cfg.Sacrifice),
		segmenter: phase.NewSegmenter(o.cfg.Phases),
		stats:     o.stats,
		logger:    o.logger.Named("analyzer"),
	}

	a.logger.Debug("analyzer initialized",
		zap.Int("workers", a.workers),
		zap.Bool("book", a.book != nil),
		zap.String("recapturePolicy", a.cfg.RecapturePolicy),
	)

	return a, nil
}

// Config returns the configuration in use.
func (a *Analyzer) Config() config.Config {
	return a.cfg
}

// AnalyzeGame analyzes a single game. username selects the perspective of
// the summary and may be empty.
func (a *Analyzer) AnalyzeGame(ctx context.Context, game *chess.Game, username string) (*aggregate.GameSummary, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}
	return a.analyze(ctx, game, pgnio.HeaderOf(game), username)
}

// Skipped is a game of a batch that produced no summary.
type Skipped struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// Report is the result of a batch.
type Report struct {
	Username string                   `json:"username,omitempty"`
	Games    []*aggregate.GameSummary `json:"games"`
	Player   *aggregate.PlayerSummary `json:"player,omitempty"`
	Skipped  []Skipped                `json:"skipped,omitempty"`

	// Filtered counts games in which username did not play.
	Filtered int `json:"filtered,omitempty"`
}

// AnalyzePGN analyzes every game of a PGN stream. Games that fail to parse
// are skipped and recorded. With a username only that player's games are
// analyzed and a PlayerSummary is built.
//
// Games run on up to Workers goroutines and are reported in input order.
// Cancellation is observed between games: the report then holds the games
// finished so far and the context error is returned with it.
func (a *Analyzer) AnalyzePGN(ctx context.Context, r io.Reader, username string) (*Report, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}

	var records []pgnio.Record
	err := pgnio.Read(r, func(rec pgnio.Record) error {
		records = append(records, rec)
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}

	report := &Report{Username: username}
	results := make([]*aggregate.GameSummary, len(records))
	failures := make([]error, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i, rec := range records {
		if rec.Err != nil {
			failures[i] = rec.Err
			a.stats.IncCounter(stats.MetricGamesSkipped, 1)
			a.logger.Warn("skipping game", zap.Int("game", rec.Index), zap.Error(rec.Err))
			continue
		}
		if username != "" {
			if _, ok := rec.Header.PlaysAs(username); !ok {
				report.Filtered++
				continue
			}
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			summary, err := a.analyze(gctx, rec.Game, rec.Header, username)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failures[i] = err
				a.stats.IncCounter(stats.MetricGamesSkipped, 1)
				a.logger.Warn("game not analyzed", zap.Int("game", rec.Index), zap.Error(err))
				return nil
			}
			results[i] = summary
			return nil
		})
	}
	waitErr := g.Wait()

	for i := range records {
		switch {
		case results[i] != nil:
			report.Games = append(report.Games, results[i])
		case failures[i] != nil:
			report.Skipped = append(report.Skipped, Skipped{Index: i, Error: failures[i].Error()})
		}
	}
	if username != "" {
		report.Player = aggregate.Summarize(username, report.Games)
	}

	if waitErr != nil {
		return report, fmt.Errorf("analysis interrupted: %w", waitErr)
	}
	return report, nil
}

// Close releases the evaluator.
// After Close, the analyzer should not be used.
func (a *Analyzer) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if err := a.evaluator.Close(); err != nil {
		return fmt.Errorf("closing evaluator: %w", err)
	}
	return nil
}
