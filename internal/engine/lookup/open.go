package lookup

import (
	"context"
	"fmt"

	"github.com/discochess/gamelens/internal/codec"
	"github.com/discochess/gamelens/internal/codec/noopcodec"
	"github.com/discochess/gamelens/internal/codec/zstdcodec"
	"github.com/discochess/gamelens/internal/stats"
	"github.com/discochess/gamelens/internal/store"
	"github.com/discochess/gamelens/internal/store/cachedstore"
	"github.com/discochess/gamelens/internal/store/cachedstore/cachestrategy/lru"
	"github.com/discochess/gamelens/internal/store/cachedstore/memory"
	"github.com/discochess/gamelens/internal/store/storeurl"
)

// Shard compressions recorded in the manifest.
const (
	CompressionZstd = "zstd"
	CompressionNone = "none"
)

// DefaultCacheSize is the number of shards Open keeps in memory.
const DefaultCacheSize = 100

// Codec returns the codec for a manifest compression name.
func Codec(compression string) (codec.Codec, error) {
	switch compression {
	case CompressionZstd, "":
		return zstdcodec.New(), nil
	case CompressionNone:
		return noopcodec.New(), nil
	default:
		return nil, fmt.Errorf("lookup: unknown compression %q", compression)
	}
}

// Open opens the database at loc, a location understood by storeurl. The
// manifest selects the shard codec and strategy, and shards are cached in
// an LRU of cacheSize entries. Options are applied after the manifest.
func Open(ctx context.Context, loc string, cacheSize int, collector stats.Collector, opts ...Option) (*Evaluator, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	l, err := storeurl.Parse(loc)
	if err != nil {
		return nil, err
	}

	meta, err := l.Open(ctx, noopcodec.New())
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", l, err)
	}
	m, err := ReadManifest(ctx, meta)
	meta.Close()
	if err != nil {
		return nil, err
	}

	c, err := Codec(m.Compression)
	if err != nil {
		return nil, err
	}
	base, err := l.Open(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", l, err)
	}
	strategy, err := lru.New(cacheSize)
	if err != nil {
		base.Close()
		return nil, err
	}
	var st store.Store = cachedstore.New(base, memory.New(strategy, collector))

	all := append([]Option{WithStore(st), WithManifest(m), WithStats(collector)}, opts...)
	e, err := New(all...)
	if err != nil {
		st.Close()
		return nil, err
	}
	return e, nil
}
