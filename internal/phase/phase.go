// Package phase partitions a game's plies into opening, middlegame and
// endgame.
package phase

import (
	"fmt"

	"github.com/notnil/chess"

	"github.com/discochess/gamelens/internal/config"
	"github.com/discochess/gamelens/internal/replay"
)

// Phase is a coarse stage of a game. Phases are ordered: a game never moves
// back to an earlier phase.
type Phase int

const (
	Opening Phase = iota
	Middlegame
	Endgame
)

// NumPhases is the size of an array indexed by Phase.
const NumPhases = 3

// All lists the phases in order.
var All = [NumPhases]Phase{Opening, Middlegame, Endgame}

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case Opening:
		return "opening"
	case Middlegame:
		return "middlegame"
	case Endgame:
		return "endgame"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// homeSquares are the starting squares of every minor and major piece.
var homeSquares = map[chess.Square]chess.Piece{
	chess.A1: chess.WhiteRook, chess.B1: chess.WhiteKnight, chess.C1: chess.WhiteBishop, chess.D1: chess.WhiteQueen,
	chess.F1: chess.WhiteBishop, chess.G1: chess.WhiteKnight, chess.H1: chess.WhiteRook,
	chess.A8: chess.BlackRook, chess.B8: chess.BlackKnight, chess.C8: chess.BlackBishop, chess.D8: chess.BlackQueen,
	chess.F8: chess.BlackBishop, chess.G8: chess.BlackKnight, chess.H8: chess.BlackRook,
}

// Segmenter assigns a phase to every ply.
type Segmenter struct {
	cfg config.Phases
}

// NewSegmenter creates a Segmenter.
func NewSegmenter(cfg config.Phases) *Segmenter {
	return &Segmenter{cfg: cfg}
}

// Segment returns one phase per ply, judged on the position after the ply.
// The result never decreases along the ply sequence.
func (s *Segmenter) Segment(plies []replay.Ply) []Phase {
	phases := make([]Phase, len(plies))
	developed := make(map[chess.Square]bool, len(homeSquares))
	current := Opening

	for i, p := range plies {
		// A piece that has left its home square stays counted even if an
		// identical piece later lands there.
		if _, ok := homeSquares[p.Move.S1()]; ok {
			developed[p.Move.S1()] = true
		}
		if _, ok := homeSquares[p.Move.S2()]; ok {
			developed[p.Move.S2()] = true
		}
		if sq, ok := castledRook(p); ok {
			developed[sq] = true
		}

		next := s.judge(p, len(developed))
		if next > current {
			current = next
		}
		phases[i] = current
	}
	return phases
}

// castledRook returns the home square of the rook moved by a castling ply.
func castledRook(p replay.Ply) (chess.Square, bool) {
	switch {
	case p.Move.HasTag(chess.KingSideCastle) && p.Mover == chess.White:
		return chess.H1, true
	case p.Move.HasTag(chess.KingSideCastle):
		return chess.H8, true
	case p.Move.HasTag(chess.QueenSideCastle) && p.Mover == chess.White:
		return chess.A1, true
	case p.Move.HasTag(chess.QueenSideCastle):
		return chess.A8, true
	}
	return chess.NoSquare, false
}

func (s *Segmenter) judge(p replay.Ply, developed int) Phase {
	if replay.Material(p.After).NonPawn() < s.cfg.EndgameMaterial {
		return Endgame
	}
	if p.Number() > s.cfg.OpeningPlies || developed >= s.cfg.DevelopedPieces {
		return Middlegame
	}
	return Opening
}
