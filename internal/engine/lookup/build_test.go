package lookup

import (
	"context"
	"strings"
	"testing"

	"github.com/discochess/gamelens/internal/codec/noopcodec"
	"github.com/discochess/gamelens/internal/codec/zstdcodec"
	"github.com/discochess/gamelens/internal/shard/fnvshard"
	"github.com/discochess/gamelens/internal/store"
	"github.com/discochess/gamelens/internal/store/diskstore"
	"github.com/discochess/gamelens/internal/store/memstore"
)

func TestBuilder_Build(t *testing.T) {
	var src strings.Builder
	for _, line := range records {
		src.WriteString(line + "\n")
	}
	// Full FENs are stored under their four-field key.
	src.WriteString(`{"fen":"4k3/8/8/8/8/8/8/4K2R w K - 3 40","evals":[{"pvs":[{"cp":700,"line":"h1h8"}],"knodes":5,"depth":40}]}` + "\n")
	src.WriteString(`{"fen":"not a fen","evals":[]}` + "\n\n")

	shards, meta := memstore.New(), memstore.New()
	b := NewBuilder(BuildWithTotalShards(8), BuildWithStrategy(fnvshard.New()), BuildWithWorkers(2))
	m, err := b.Build(context.Background(), strings.NewReader(src.String()), shards, meta)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if m.RecordCount != int64(len(records)+1) {
		t.Errorf("RecordCount = %d, want %d", m.RecordCount, len(records)+1)
	}
	if m.Strategy != fnvshard.Name || m.TotalShards != 8 {
		t.Errorf("manifest = %+v", m)
	}

	read, err := ReadManifest(context.Background(), meta)
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if read.RecordCount != m.RecordCount || read.ShardCount != m.ShardCount {
		t.Errorf("ReadManifest() = %+v, want %+v", read, m)
	}

	for _, key := range shards.Keys() {
		if !strings.HasPrefix(key, "shards/") {
			t.Errorf("unexpected key %q", key)
		}
	}

	ev, err := New(WithStore(shards), WithManifest(read))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer ev.Close()

	got, err := ev.Lookup(context.Background(), startKey)
	if err != nil {
		t.Fatalf("Lookup(start) error = %v", err)
	}
	if got.CP() != 18 {
		t.Errorf("Lookup(start) = %d, want 18", got.CP())
	}
	got, err = ev.Lookup(context.Background(), "4k3/8/8/8/8/8/8/4K2R w K - 0 1")
	if err != nil {
		t.Fatalf("Lookup(normalized) error = %v", err)
	}
	if got.CP() != 700 {
		t.Errorf("Lookup(normalized) = %d, want 700", got.CP())
	}
}

func TestBuilder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder().Build(ctx, strings.NewReader(records[startKey]+"\n"), memstore.New(), memstore.New())
	if err == nil {
		t.Fatal("Build() with cancelled context succeeded")
	}
}

func TestBuilder_ShardsSorted(t *testing.T) {
	shards, meta := memstore.New(), memstore.New()
	var src strings.Builder
	for _, line := range records {
		src.WriteString(line + "\n")
	}
	if _, err := NewBuilder(BuildWithTotalShards(1)).Build(context.Background(), strings.NewReader(src.String()), shards, meta); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	data, err := shards.Get(context.Background(), store.ShardKey(0))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != len(records) {
		t.Fatalf("shard has %d lines, want %d", len(lines), len(records))
	}
	for i := 1; i < len(lines); i++ {
		if lines[i-1] > lines[i] {
			t.Errorf("shard not sorted at line %d", i)
		}
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	shards, err := diskstore.New(dir, zstdcodec.New())
	if err != nil {
		t.Fatalf("diskstore.New() error = %v", err)
	}
	meta, err := diskstore.New(dir, noopcodec.New())
	if err != nil {
		t.Fatalf("diskstore.New() error = %v", err)
	}

	var src strings.Builder
	for _, line := range records {
		src.WriteString(line + "\n")
	}
	b := NewBuilder(BuildWithTotalShards(4), BuildWithStrategy(fnvshard.New()))
	if _, err := b.Build(ctx, strings.NewReader(src.String()), shards, meta); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	e, err := Open(ctx, dir, 2, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer e.Close()
	if e.ShardStrategy().Name() != fnvshard.Name {
		t.Errorf("strategy = %q, want %q", e.ShardStrategy().Name(), fnvshard.Name)
	}

	ev, err := e.Lookup(ctx, e4Key)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	// Stored from White's view, returned for Black to move.
	if ev.CP() != -30 {
		t.Errorf("CP() = %d, want -30", ev.CP())
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, t.TempDir(), 0, nil); err == nil {
		t.Error("Open() without manifest should fail")
	}
	if _, err := Open(ctx, "ftp://host/db", 0, nil); err == nil {
		t.Error("Open() with unsupported scheme should fail")
	}
	if _, err := Codec("lz4"); err == nil {
		t.Error("Codec(lz4) should fail")
	}
}
