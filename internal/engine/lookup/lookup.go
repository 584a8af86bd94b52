// Package lookup answers position evaluations from a precomputed database
// of Lichess evaluations, sharded and sorted by FEN.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/discochess/gamelens/internal/engine"
	"github.com/discochess/gamelens/internal/fen"
	"github.com/discochess/gamelens/internal/search"
	"github.com/discochess/gamelens/internal/shard"
	"github.com/discochess/gamelens/internal/shard/materialshard"
	"github.com/discochess/gamelens/internal/stats"
	"github.com/discochess/gamelens/internal/store"
)

// ErrNoStore indicates no store was provided.
var ErrNoStore = errors.New("lookup: no store provided")

// Compile-time check that Evaluator implements engine.Evaluator.
var _ engine.Evaluator = (*Evaluator)(nil)

// Evaluator reads evaluations from the database. It is safe for concurrent
// use by multiple goroutines.
type Evaluator struct {
	store         store.Store
	shardStrategy shard.Strategy
	totalShards   int
	stats         stats.Collector
	logger        *zap.Logger
	closed        atomic.Bool
}

// New creates an Evaluator with the given options.
func New(opts ...Option) (*Evaluator, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		if err := opt.apply(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.store == nil {
		return nil, ErrNoStore
	}

	e := &Evaluator{
		store:         cfg.store,
		shardStrategy: cfg.shardStrategy,
		totalShards:   cfg.totalShards,
		stats:         cfg.stats,
		logger:        cfg.logger.Named("lookup"),
	}
	e.logger.Debug("evaluation database opened",
		zap.Int("totalShards", e.totalShards),
		zap.String("shardStrategy", e.shardStrategy.Name()),
	)
	return e, nil
}

// Evaluate returns the stored evaluation of pos. A position missing from the
// database fails with engine.ErrNotFound.
func (e *Evaluator) Evaluate(ctx context.Context, pos *chess.Position) (*engine.Evaluation, error) {
	return e.Lookup(ctx, pos.String())
}

// Lookup returns the stored evaluation of a FEN position, relative to the
// side to move.
func (e *Evaluator) Lookup(ctx context.Context, fenStr string) (*engine.Evaluation, error) {
	if e.closed.Load() {
		return nil, &engine.Error{FEN: fenStr, Err: engine.ErrClosed}
	}

	key, err := fen.Normalize(fenStr)
	if err != nil {
		return nil, &engine.Error{FEN: fenStr, Err: fmt.Errorf("%w: %v", engine.ErrMalformedPosition, err)}
	}
	side, _ := fen.SideToMove(key)

	e.stats.IncCounter(stats.MetricLookups, 1)

	var record *search.Record
	for _, k := range candidateKeys(key) {
		record, err = e.find(ctx, k)
		if err == nil || !errors.Is(err, search.ErrNotFound) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, search.ErrNotFound) {
			e.stats.IncCounter(stats.MetricLookupMisses, 1)
			return nil, &engine.Error{FEN: fenStr, Err: engine.ErrNotFound}
		}
		return nil, &engine.Error{FEN: fenStr, Err: fmt.Errorf("%w: %v", engine.ErrEngine, err)}
	}

	ev, ok := toEvaluation(record, side == "b")
	if !ok {
		e.stats.IncCounter(stats.MetricLookupMisses, 1)
		return nil, &engine.Error{FEN: fenStr, Err: engine.ErrNotFound}
	}
	e.stats.IncCounter(stats.MetricLookupHits, 1)
	return ev, nil
}

// find searches the shard holding key.
func (e *Evaluator) find(ctx context.Context, key string) (*search.Record, error) {
	shardID := e.shardStrategy.ShardID(key, e.totalShards)
	data, err := e.store.Get(ctx, store.ShardKey(shardID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, search.ErrNotFound
		}
		return nil, fmt.Errorf("fetching shard %d: %w", shardID, err)
	}
	return search.Search(data, key)
}

// candidateKeys lists the keys a position may be stored under. The database
// omits en passant squares no pawn can capture on, so a key with an en
// passant square also tries the key without one.
func candidateKeys(key string) []string {
	parts := strings.Fields(key)
	if len(parts) == 4 && parts[3] != "-" {
		return []string{key, strings.Join(append(parts[:3:3], "-"), " ")}
	}
	return []string{key}
}

// toEvaluation converts a White-relative record to an evaluation relative
// to the side to move.
func toEvaluation(r *search.Record, blackToMove bool) (*engine.Evaluation, bool) {
	best, pv, ok := r.Best()
	if !ok || (pv.CP == nil && pv.Mate == nil) {
		return nil, false
	}

	ev := &engine.Evaluation{
		Centipawns: pv.CP,
		Mate:       pv.Mate,
		Depth:      best.Depth,
		PV:         strings.Fields(pv.Line),
	}
	if blackToMove {
		ev = ev.Negate()
	}
	return ev, true
}

// Close releases the underlying store.
func (e *Evaluator) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := e.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

// ShardStrategy returns the sharding strategy in use.
func (e *Evaluator) ShardStrategy() shard.Strategy {
	return e.shardStrategy
}

// Option configures an Evaluator.
type Option interface {
	apply(*options) error
}

type options struct {
	store         store.Store
	shardStrategy shard.Strategy
	totalShards   int
	stats         stats.Collector
	logger        *zap.Logger
}

func defaultOptions() options {
	return options{
		shardStrategy: materialshard.New(),
		totalShards:   32768, // 2^15 shards
		stats:         stats.NewNoop(),
		logger:        zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options) error

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) error { return f(o) }

// WithStore sets the store holding the shards.
func WithStore(s store.Store) Option {
	return optionFunc(func(o *options) error {
		o.store = s
		return nil
	})
}

// WithManifest configures shard count and strategy from a manifest.
func WithManifest(m *Manifest) Option {
	return optionFunc(func(o *options) error {
		strategy, err := m.ShardStrategy()
		if err != nil {
			return err
		}
		o.shardStrategy = strategy
		o.totalShards = m.TotalShards
		return nil
	})
}

// WithShardStrategy sets the sharding strategy.
// If not set, material-based sharding is used.
func WithShardStrategy(s shard.Strategy) Option {
	return optionFunc(func(o *options) error {
		o.shardStrategy = s
		return nil
	})
}

// WithTotalShards sets the total number of shards. Default is 32768.
func WithTotalShards(n int) Option {
	return optionFunc(func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("lookup: total shards must be positive, got %d", n)
		}
		o.totalShards = n
		return nil
	})
}

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) error {
		o.stats = c
		return nil
	})
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) error {
		o.logger = l
		return nil
	})
}
