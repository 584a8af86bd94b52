// Package shard defines how positions in the evaluation database are
// distributed across shard files.
package shard

// Strategy maps FEN positions to shard IDs.
type Strategy interface {
	// Name identifies the strategy in the database manifest.
	Name() string

	// ShardID computes the shard ID for a given FEN position, in the range
	// [0, totalShards). Positions differing only in move counters map to the
	// same shard.
	ShardID(fen string, totalShards int) int
}
