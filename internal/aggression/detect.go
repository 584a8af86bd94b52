package aggression

import (
	"github.com/notnil/chess"

	"github.com/discochess/gamelens/internal/config"
	"github.com/discochess/gamelens/internal/replay"
)

var centerSquares = map[chess.Square]bool{
	chess.D4: true, chess.E4: true, chess.D5: true, chess.E5: true,
}

// ringSquares surround the four central squares.
var ringSquares = map[chess.Square]bool{
	chess.C3: true, chess.D3: true, chess.E3: true, chess.F3: true,
	chess.C6: true, chess.D6: true, chess.E6: true, chess.F6: true,
	chess.C4: true, chess.F4: true, chess.C5: true, chess.F5: true,
}

// Detector derives the tags of a ply from the replayed game.
type Detector struct {
	cfg config.Sacrifice
}

// NewDetector creates a Detector with the given sacrifice heuristic.
func NewDetector(cfg config.Sacrifice) *Detector {
	return &Detector{cfg: cfg}
}

// Detect returns the tags of plies[i]. delta is the ply's evaluation change
// from the mover's view and is only consulted when evaluated is true.
func (d *Detector) Detect(plies []replay.Ply, i int, delta int, evaluated bool) Tags {
	p := plies[i]
	var tags Tags

	if p.IsCapture() {
		tags = tags.With(Capture)
		if i > 0 {
			prev := plies[i-1]
			if prev.IsCapture() && prev.Move.S2() == p.Move.S2() {
				tags = tags.With(Recapture)
			}
		}
	}
	if evaluated && d.isSacrifice(plies, i, delta) {
		tags = tags.With(Sacrifice)
	}
	if p.IsCheck() {
		tags = tags.With(Check)
	}
	if centerSquares[p.Move.S2()] {
		tags = tags.With(Center)
	}
	if p.IsPromotion() {
		tags = tags.With(Promotion)
	}
	if ringSquares[p.Move.S2()] || attacksCenter(p.After, p.Move.S2()) {
		tags = tags.With(CenterAttack)
	}
	return tags
}

// isSacrifice reports whether the mover ends the lookahead window at least
// MaterialDrop points down while the move itself was not a collapse.
func (d *Detector) isSacrifice(plies []replay.Ply, i int, delta int) bool {
	if delta <= d.cfg.MaxEvalLoss {
		return false
	}
	p := plies[i]
	white := p.Mover == chess.White

	end := min(i+d.cfg.Lookahead, len(plies)-1)
	before := replay.Material(p.Before).Balance(white)
	after := replay.Material(plies[end].After).Balance(white)
	return before-after >= d.cfg.MaterialDrop
}

// attacksCenter reports whether the piece on sq attacks a central square
// other than the one it stands on.
func attacksCenter(pos *chess.Position, sq chess.Square) bool {
	board := pos.Board()
	piece := board.Piece(sq)
	if piece == chess.NoPiece {
		return false
	}
	for _, target := range attackedSquares(board, sq, piece) {
		if target != sq && centerSquares[target] {
			return true
		}
	}
	return false
}

var (
	knightSteps   = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps     = [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookRays      = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopRays    = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	queenRays     = append(append([][2]int{}, rookRays...), bishopRays...)
	whitePawnHits = [][2]int{{-1, 1}, {1, 1}}
	blackPawnHits = [][2]int{{-1, -1}, {1, -1}}
)

// attackedSquares lists the squares attacked by piece standing on from.
// Pins and checks are ignored.
func attackedSquares(board *chess.Board, from chess.Square, piece chess.Piece) []chess.Square {
	switch piece.Type() {
	case chess.Knight:
		return steps(from, knightSteps)
	case chess.King:
		return steps(from, kingSteps)
	case chess.Pawn:
		if piece.Color() == chess.White {
			return steps(from, whitePawnHits)
		}
		return steps(from, blackPawnHits)
	case chess.Bishop:
		return rays(board, from, bishopRays)
	case chess.Rook:
		return rays(board, from, rookRays)
	case chess.Queen:
		return rays(board, from, queenRays)
	}
	return nil
}

func steps(from chess.Square, deltas [][2]int) []chess.Square {
	var out []chess.Square
	for _, d := range deltas {
		if sq, ok := offset(from, d[0], d[1]); ok {
			out = append(out, sq)
		}
	}
	return out
}

func rays(board *chess.Board, from chess.Square, dirs [][2]int) []chess.Square {
	var out []chess.Square
	for _, d := range dirs {
		for n := 1; ; n++ {
			sq, ok := offset(from, d[0]*n, d[1]*n)
			if !ok {
				break
			}
			out = append(out, sq)
			if board.Piece(sq) != chess.NoPiece {
				break
			}
		}
	}
	return out
}

func offset(sq chess.Square, df, dr int) (chess.Square, bool) {
	file := int(sq)%8 + df
	rank := int(sq)/8 + dr
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return chess.NoSquare, false
	}
	return chess.Square(rank*8 + file), true
}
