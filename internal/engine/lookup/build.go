package lookup

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discochess/gamelens/internal/fen"
	"github.com/discochess/gamelens/internal/search"
	"github.com/discochess/gamelens/internal/shard"
	"github.com/discochess/gamelens/internal/shard/materialshard"
	"github.com/discochess/gamelens/internal/store"
)

// maxRecordLine bounds one JSONL record of the source dump.
const maxRecordLine = 10 * 1024 * 1024

// Builder converts a Lichess evaluation dump into a sharded database.
// Records are held in memory until written.
type Builder struct {
	strategy    shard.Strategy
	totalShards int
	workers     int
	sourceURL   string
	compression string
	logger      *zap.Logger
}

// BuildOption configures a Builder.
type BuildOption func(*Builder)

// BuildWithStrategy sets the shard strategy. Default is material.
func BuildWithStrategy(s shard.Strategy) BuildOption {
	return func(b *Builder) { b.strategy = s }
}

// BuildWithTotalShards sets the number of shards. Default is 32768.
func BuildWithTotalShards(n int) BuildOption {
	return func(b *Builder) { b.totalShards = n }
}

// BuildWithWorkers sets how many shards are written in parallel.
func BuildWithWorkers(n int) BuildOption {
	return func(b *Builder) { b.workers = n }
}

// BuildWithSourceURL records where the dump came from in the manifest.
func BuildWithSourceURL(url string) BuildOption {
	return func(b *Builder) { b.sourceURL = url }
}

// BuildWithCompression records the shard codec in the manifest. It must
// match the codec of the shards store passed to Build. Default is zstd.
func BuildWithCompression(name string) BuildOption {
	return func(b *Builder) { b.compression = name }
}

// BuildWithLogger sets the logger.
func BuildWithLogger(l *zap.Logger) BuildOption {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...BuildOption) *Builder {
	b := &Builder{
		strategy:    materialshard.New(),
		totalShards: 32768,
		workers:     4,
		compression: CompressionZstd,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.Named("builder")
	return b
}

// Build reads JSONL records from src and writes sorted shards to shards and
// the manifest to meta. meta must not apply a codec.
func (b *Builder) Build(ctx context.Context, src io.Reader, shards, meta store.Store) (*Manifest, error) {
	if b.totalShards <= 0 {
		return nil, fmt.Errorf("lookup: total shards must be positive, got %d", b.totalShards)
	}
	start := time.Now()

	collected := make(map[int][][]byte)
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 1024*1024), maxRecordLine)

	var read, skipped int64
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		raw := search.ExtractFEN(line)
		key, err := fen.Normalize(raw)
		if err != nil {
			skipped++
			continue
		}
		record := bytes.Clone(line)
		if key != raw {
			record = bytes.Replace(record, []byte(raw), []byte(key), 1)
		}
		id := b.strategy.ShardID(key, b.totalShards)
		collected[id] = append(collected[id], record)

		read++
		if read%100000 == 0 {
			b.logger.Info("reading records", zap.Int64("records", read))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.workers, 1))
	for id, lines := range collected {
		g.Go(func() error {
			if err := writeShard(gctx, shards, id, lines); err != nil {
				return fmt.Errorf("writing shard %d: %w", id, err)
			}
			written.Add(int64(len(lines)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := &Manifest{
		Version:     1,
		TotalShards: b.totalShards,
		Strategy:    b.strategy.Name(),
		RecordCount: written.Load(),
		ShardCount:  len(collected),
		BuiltAt:     time.Now().UTC(),
		SourceURL:   b.sourceURL,
		Compression: b.compression,
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	if err := meta.Put(ctx, ManifestKey, data); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	b.logger.Info("database built",
		zap.Int64("records", m.RecordCount),
		zap.Int64("skipped", skipped),
		zap.Int("shards", m.ShardCount),
		zap.Duration("elapsed", time.Since(start)),
	)
	return m, nil
}

func writeShard(ctx context.Context, st store.Store, id int, lines [][]byte) error {
	sort.Slice(lines, func(i, j int) bool {
		return search.ExtractFEN(lines[i]) < search.ExtractFEN(lines[j])
	})
	var buf bytes.Buffer
	for _, l := range lines {
		buf.Write(l)
		buf.WriteByte('\n')
	}
	return st.Put(ctx, store.ShardKey(id), buf.Bytes())
}
