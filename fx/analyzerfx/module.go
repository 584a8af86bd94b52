// Package analyzerfx provides an fx module for an Analyzer backed by an
// evaluation database, a UCI engine, or both.
package analyzerfx

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/gamelens"
	"github.com/discochess/gamelens/internal/config"
	"github.com/discochess/gamelens/internal/engine"
	"github.com/discochess/gamelens/internal/engine/lookup"
	"github.com/discochess/gamelens/internal/engine/uciengine"
	"github.com/discochess/gamelens/internal/stats"
	"github.com/discochess/gamelens/internal/stats/logger"
	"github.com/discochess/gamelens/internal/theory"
)

// Config holds configuration for the analyzer.
type Config struct {
	// Analysis is the analysis configuration. Start from config.Default().
	Analysis config.Config

	// EvalDB is the location of the evaluation database, see storeurl.
	// Empty disables database lookups.
	EvalDB string

	// CacheSize is the number of shards to cache in memory.
	// Default is 100.
	CacheSize int

	// UseEngine starts the UCI engine at Analysis.Engine.Path. With an
	// EvalDB, the engine answers positions missing from the database.
	UseEngine bool

	// BookFile is a CSV opening book. Empty uses the built-in ECO book.
	BookFile string
}

// Module provides an Analyzer.
// Requires a Config and a *zap.Logger to be provided.
var Module = fx.Module("analyzer",
	fx.Provide(
		newStatsCollector,
		newBook,
		newAnalyzer,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("gamelens.stats"))
}

func newBook(cfg Config) (theory.Book, error) {
	return LoadBook(cfg.BookFile)
}

// Params holds dependencies for creating the analyzer.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Book      theory.Book
	Lifecycle fx.Lifecycle
}

// Result holds the provided analyzer.
type Result struct {
	fx.Out

	Analyzer *gamelens.Analyzer
}

func newAnalyzer(p Params) (Result, error) {
	eval, err := NewEvaluator(context.Background(), p.Config, p.Collector, p.Logger)
	if err != nil {
		return Result{}, err
	}

	a, err := gamelens.New(
		gamelens.WithEvaluator(eval),
		gamelens.WithBook(p.Book),
		gamelens.WithConfig(p.Config.Analysis),
		gamelens.WithStats(p.Collector),
		gamelens.WithLogger(p.Logger.Named("gamelens")),
	)
	if err != nil {
		eval.Close()
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return a.Close()
		},
	})

	return Result{Analyzer: a}, nil
}

// NewEvaluator builds the evaluator described by cfg: the database, the
// engine, or the database falling back to the engine.
func NewEvaluator(ctx context.Context, cfg Config, collector stats.Collector, log *zap.Logger) (engine.Evaluator, error) {
	var db, eng engine.Evaluator
	if cfg.EvalDB != "" {
		e, err := lookup.Open(ctx, cfg.EvalDB, cfg.CacheSize, collector, lookup.WithLogger(log))
		if err != nil {
			return nil, fmt.Errorf("opening evaluation database: %w", err)
		}
		db = e
	}
	if cfg.UseEngine {
		ec := cfg.Analysis.Engine
		e, err := uciengine.New(ec.Path,
			uciengine.WithDepth(ec.Depth),
			uciengine.WithMoveTime(ec.MoveTime),
			uciengine.WithTimeout(ec.Timeout),
			uciengine.WithLogger(log),
		)
		if err != nil {
			if db != nil {
				db.Close()
			}
			return nil, err
		}
		eng = e
	}

	switch {
	case db != nil && eng != nil:
		return engine.Fallback(db, eng), nil
	case db != nil:
		return db, nil
	case eng != nil:
		return eng, nil
	default:
		return nil, gamelens.ErrNoEvaluator
	}
}

// LoadBook reads a CSV opening book, or returns the built-in ECO book when
// path is empty.
func LoadBook(path string) (theory.Book, error) {
	if path == "" {
		return theory.NewECO()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening book: %w", err)
	}
	defer f.Close()
	book, err := theory.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading book %s: %w", path, err)
	}
	return book, nil
}
