// Package fnvshard implements FNV-1a hash-based sharding. Positions spread
// uniformly but positions of one game do not share shards.
package fnvshard

import (
	"hash/fnv"

	"github.com/discochess/gamelens/internal/fen"
	"github.com/discochess/gamelens/internal/shard"
)

// Name is the manifest name of the strategy.
const Name = "fnv32"

// Strategy implements FNV-1a hash-based sharding.
type Strategy struct{}

// Ensure Strategy implements shard.Strategy.
var _ shard.Strategy = (*Strategy)(nil)

// New creates a new FNV-based sharding strategy.
func New() *Strategy {
	return &Strategy{}
}

// Name returns the strategy name.
func (s *Strategy) Name() string {
	return Name
}

// ShardID hashes the normalized FEN. Unparseable input is hashed as is.
func (s *Strategy) ShardID(fenStr string, totalShards int) int {
	key, err := fen.Normalize(fenStr)
	if err != nil {
		key = fenStr
	}
	return Hash(key, totalShards)
}

// Hash reduces the FNV-1a hash of s modulo totalShards.
func Hash(s string, totalShards int) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32() % uint32(totalShards))
}
