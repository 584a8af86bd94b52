package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/discochess/gamelens/internal/shard"
	"github.com/discochess/gamelens/internal/shard/fnvshard"
	"github.com/discochess/gamelens/internal/shard/materialshard"
	"github.com/discochess/gamelens/internal/store"
)

// ManifestKey is the key of the manifest within a database location.
const ManifestKey = "manifest.json"

// Manifest describes a built evaluation database.
type Manifest struct {
	Version     int       `json:"version"`
	TotalShards int       `json:"total_shards"`
	Strategy    string    `json:"strategy"`
	RecordCount int64     `json:"record_count"`
	ShardCount  int       `json:"shard_count"` // Non-empty shards
	BuiltAt     time.Time `json:"built_at"`
	SourceURL   string    `json:"source_url,omitempty"`
	Compression string    `json:"compression"`
}

// ReadManifest reads the manifest from st. The store must not apply a
// codec, the manifest is plain JSON.
func ReadManifest(ctx context.Context, st store.Store) (*Manifest, error) {
	data, err := st.Get(ctx, ManifestKey)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.TotalShards <= 0 {
		return nil, fmt.Errorf("manifest: total_shards must be positive, got %d", m.TotalShards)
	}
	return &m, nil
}

// ShardStrategy returns the strategy the database was built with.
func (m *Manifest) ShardStrategy() (shard.Strategy, error) {
	switch m.Strategy {
	case materialshard.Name:
		return materialshard.New(), nil
	case fnvshard.Name:
		return fnvshard.New(), nil
	default:
		return nil, fmt.Errorf("unknown strategy in manifest: %q", m.Strategy)
	}
}
