package lookup

import (
	"context"
	"testing"

	"github.com/discochess/gamelens/internal/codec/zstdcodec"
	"github.com/discochess/gamelens/internal/stats"
	"github.com/discochess/gamelens/internal/store/cachedstore"
	"github.com/discochess/gamelens/internal/store/cachedstore/cachestrategy/lru"
	"github.com/discochess/gamelens/internal/store/cachedstore/memory"
	"github.com/discochess/gamelens/internal/store/diskstore"
)

// BenchmarkLookup_Memory measures lookup latency against uncompressed
// shards held in memory.
func BenchmarkLookup_Memory(b *testing.B) {
	e, err := New(WithStore(buildDB(b)), WithTotalShards(totalShards))
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}
	defer e.Close()

	ctx := context.Background()
	keys := []string{startKey, e4Key, mateKey}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Lookup(ctx, keys[i%len(keys)]); err != nil {
			b.Fatalf("Lookup() error = %v", err)
		}
	}
}

// BenchmarkLookup_DiskWarmCache measures lookup latency on zstd shards on
// disk behind an LRU cache.
func BenchmarkLookup_DiskWarmCache(b *testing.B) {
	ctx := context.Background()
	dir := b.TempDir()
	disk, err := diskstore.New(dir, zstdcodec.New())
	if err != nil {
		b.Fatalf("diskstore.New() error = %v", err)
	}
	src := buildDB(b)
	for _, key := range src.Keys() {
		data, _ := src.Get(ctx, key)
		if err := disk.Put(ctx, key, data); err != nil {
			b.Fatalf("Put() error = %v", err)
		}
	}

	strategy, err := lru.New(totalShards)
	if err != nil {
		b.Fatalf("lru.New() error = %v", err)
	}
	st := cachedstore.New(disk, memory.New(strategy, stats.NewNoop()))
	e, err := New(WithStore(st), WithTotalShards(totalShards))
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}
	defer e.Close()

	if _, err := e.Lookup(ctx, startKey); err != nil {
		b.Fatalf("warmup Lookup() error = %v", err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Lookup(ctx, startKey); err != nil {
			b.Fatalf("Lookup() error = %v", err)
		}
	}
}
