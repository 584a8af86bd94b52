// Package replay walks a parsed game into an ordered list of plies, each
// carrying the position before and after the move.
package replay

import (
	"errors"
	"fmt"

	"github.com/notnil/chess"

	"github.com/discochess/gamelens/internal/fen"
)

// ErrNoMoves indicates the game has no moves to replay.
var ErrNoMoves = errors.New("replay: game has no moves")

// Ply is one half-move of a game.
type Ply struct {
	// Index is the zero-based position of the ply in the game.
	Index int

	Mover  chess.Color
	Move   *chess.Move
	SAN    string
	UCI    string
	Before *chess.Position
	After  *chess.Position

	// Captured is the piece removed by the move, or chess.NoPiece.
	Captured chess.Piece
}

// Number returns the one-based ply number.
func (p Ply) Number() int {
	return p.Index + 1
}

// MoveNumber returns the full-move number the ply belongs to.
func (p Ply) MoveNumber() int {
	return p.Index/2 + 1
}

// IsCapture reports whether the move removes an opponent piece.
func (p Ply) IsCapture() bool {
	return p.Captured != chess.NoPiece
}

// IsCheck reports whether the move gives check.
func (p Ply) IsCheck() bool {
	return p.Move.HasTag(chess.Check)
}

// IsPromotion reports whether the move promotes a pawn.
func (p Ply) IsPromotion() bool {
	return p.Move.Promo() != chess.NoPieceType
}

// Game is a replayed game.
type Game struct {
	Plies []Ply

	// Positions holds len(Plies)+1 positions; Positions[i] is the position
	// before Plies[i].
	Positions []*chess.Position
}

// Replay walks the main line of g. The moves are trusted to be legal.
func Replay(g *chess.Game) (*Game, error) {
	moves := g.Moves()
	positions := g.Positions()
	if len(moves) == 0 {
		return nil, ErrNoMoves
	}
	if len(positions) != len(moves)+1 {
		return nil, fmt.Errorf("replay: %d positions for %d moves", len(positions), len(moves))
	}

	var notation chess.AlgebraicNotation
	var uci chess.UCINotation

	plies := make([]Ply, len(moves))
	for i, m := range moves {
		before, after := positions[i], positions[i+1]
		plies[i] = Ply{
			Index:    i,
			Mover:    before.Turn(),
			Move:     m,
			SAN:      notation.Encode(before, m),
			UCI:      uci.Encode(before, m),
			Before:   before,
			After:    after,
			Captured: capturedPiece(before, m),
		}
	}

	return &Game{Plies: plies, Positions: positions}, nil
}

// Material returns the material on the board in pos.
func Material(pos *chess.Position) fen.Material {
	// A *chess.Position always renders a well-formed placement field.
	m, _ := fen.ParseMaterial(pos.String())
	return m
}

func capturedPiece(before *chess.Position, m *chess.Move) chess.Piece {
	if m.HasTag(chess.EnPassant) {
		if before.Turn() == chess.White {
			return chess.BlackPawn
		}
		return chess.WhitePawn
	}
	if !m.HasTag(chess.Capture) {
		return chess.NoPiece
	}
	return before.Board().Piece(m.S2())
}
