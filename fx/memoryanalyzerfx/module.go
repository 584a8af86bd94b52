// Package memoryanalyzerfx provides an fx module for an Analyzer reading an
// in-memory evaluation database. Useful for testing.
package memoryanalyzerfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/gamelens"
	"github.com/discochess/gamelens/internal/config"
	"github.com/discochess/gamelens/internal/engine/lookup"
	"github.com/discochess/gamelens/internal/stats"
	"github.com/discochess/gamelens/internal/stats/logger"
	"github.com/discochess/gamelens/internal/store/memstore"
	"github.com/discochess/gamelens/internal/theory"
)

// Module provides an Analyzer with the default configuration and the
// built-in opening book. The database starts empty; fill the provided
// *memstore.Store with a lookup.Builder using default shard settings.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("memoryanalyzer",
	fx.Provide(
		newStatsCollector,
		newMemStore,
		newAnalyzer,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("gamelens.stats"))
}

func newMemStore() *memstore.Store {
	return memstore.New()
}

// Params holds dependencies for creating the analyzer.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Store     *memstore.Store
	Lifecycle fx.Lifecycle
}

// Result holds the provided analyzer and store.
type Result struct {
	fx.Out

	Analyzer *gamelens.Analyzer
	Store    *memstore.Store // Exposed for test setup
}

func newAnalyzer(p Params) (Result, error) {
	eval, err := lookup.New(
		lookup.WithStore(p.Store),
		lookup.WithStats(p.Collector),
		lookup.WithLogger(p.Logger),
	)
	if err != nil {
		return Result{}, err
	}
	book, err := theory.NewECO()
	if err != nil {
		return Result{}, err
	}

	a, err := gamelens.New(
		gamelens.WithEvaluator(eval),
		gamelens.WithBook(book),
		gamelens.WithConfig(config.Default()),
		gamelens.WithStats(p.Collector),
		gamelens.WithLogger(p.Logger.Named("gamelens")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return a.Close()
		},
	})

	return Result{
		Analyzer: a,
		Store:    p.Store,
	}, nil
}
