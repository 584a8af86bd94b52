package gamelens

import (
	"go.uber.org/zap"

	"github.com/discochess/gamelens/internal/config"
	"github.com/discochess/gamelens/internal/engine"
	"github.com/discochess/gamelens/internal/stats"
	"github.com/discochess/gamelens/internal/theory"
)

// Option configures an Analyzer.
type Option interface {
	apply(*options)
}

// options holds the analyzer configuration.
type options struct {
	evaluator engine.Evaluator
	book      theory.Book
	cfg       config.Config
	workers   int
	stats     stats.Collector
	logger    *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		cfg:    config.Default(),
		stats:  stats.NewNoop(),
		logger: zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithEvaluator sets the position evaluator. It is required.
// The Analyzer takes ownership and closes it on Close.
func WithEvaluator(e engine.Evaluator) Option {
	return optionFunc(func(o *options) {
		o.evaluator = e
	})
}

// WithBook sets the opening book. Without one no ply is a book move.
func WithBook(b theory.Book) Option {
	return optionFunc(func(o *options) {
		o.book = b
	})
}

// WithConfig sets the analysis configuration.
// If not set, config.Default() is used.
func WithConfig(cfg config.Config) Option {
	return optionFunc(func(o *options) {
		o.cfg = cfg
	})
}

// WithWorkers sets the number of games analyzed in parallel by AnalyzePGN,
// overriding the configuration.
func WithWorkers(n int) Option {
	return optionFunc(func(o *options) {
		o.workers = n
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}
