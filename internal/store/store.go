// Package store defines the blob storage interface shared by the evaluation
// database reader and the report publisher.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("store: object not found")

// Store is a key/value blob store. Keys are slash separated paths;
// implementations map them onto files or objects and handle compression.
type Store interface {
	// Get reads and decompresses the object stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put compresses and writes data under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Close releases any resources held by the store.
	Close() error
}

// ShardKey returns the key of an evaluation database shard.
func ShardKey(shardID int) string {
	return fmt.Sprintf("shards/%05d", shardID)
}
