// Package materialshard implements material-based sharding for chess positions.
//
// Positions of one game tend to share material configurations, so grouping
// by piece counts keeps the shards a game analysis touches few and warm in
// the cache.
package materialshard

import (
	"github.com/discochess/gamelens/internal/fen"
	"github.com/discochess/gamelens/internal/shard"
	"github.com/discochess/gamelens/internal/shard/fnvshard"
)

// Name is the manifest name of the strategy.
const Name = "material"

// Strategy implements material-based sharding.
type Strategy struct{}

// Ensure Strategy implements shard.Strategy.
var _ shard.Strategy = (*Strategy)(nil)

// New creates a new material-based sharding strategy.
func New() *Strategy {
	return &Strategy{}
}

// Name returns the strategy name.
func (s *Strategy) Name() string {
	return Name
}

// ShardID computes a shard ID based on the material configuration.
//
// The key encodes, three bits each and capped at 7: white queens, black
// queens, white rooks, black rooks, white minors, black minors; bit 18 is
// the side to move. The key is reduced modulo totalShards.
func (s *Strategy) ShardID(fenStr string, totalShards int) int {
	mat, err := fen.ParseMaterial(fenStr)
	if err != nil {
		return fnvshard.Hash(fenStr, totalShards)
	}
	side, err := fen.SideToMove(fenStr)
	if err != nil {
		return fnvshard.Hash(fenStr, totalShards)
	}
	return int(Key(mat, side == "b") % uint32(totalShards))
}

// Key packs a material configuration into the 19-bit shard key.
func Key(mat fen.Material, blackToMove bool) uint32 {
	fields := []int{
		mat.White.Queens, mat.Black.Queens,
		mat.White.Rooks, mat.Black.Rooks,
		mat.White.Minors(), mat.Black.Minors(),
	}

	var id uint32
	for i, n := range fields {
		id |= uint32(min(n, 7)) << (3 * i)
	}
	if blackToMove {
		id |= 1 << 18
	}
	return id
}
