// Package fen provides FEN (Forsyth-Edwards Notation) utilities: lookup
// key normalization and material accounting.
package fen

import (
	"errors"
	"strings"
)

// ErrInvalidFEN indicates the FEN string is malformed.
var ErrInvalidFEN = errors.New("invalid FEN notation")

// Piece values in pawn units. Kings carry no material.
const (
	PawnValue   = 1
	KnightValue = 3
	BishopValue = 3
	RookValue   = 5
	QueenValue  = 9
)

// Counts holds the piece counts of one side.
type Counts struct {
	Pawns   int
	Knights int
	Bishops int
	Rooks   int
	Queens  int
}

// Minors returns the number of knights and bishops.
func (c Counts) Minors() int {
	return c.Knights + c.Bishops
}

// NonPawn returns the value of the side's pieces other than pawns and king.
func (c Counts) NonPawn() int {
	return c.Knights*KnightValue + c.Bishops*BishopValue + c.Rooks*RookValue + c.Queens*QueenValue
}

// Value returns the total material value of the side.
func (c Counts) Value() int {
	return c.Pawns*PawnValue + c.NonPawn()
}

// Material holds the piece counts of both sides.
type Material struct {
	White Counts
	Black Counts
}

// NonPawn returns the non-pawn material of both sides together.
func (m Material) NonPawn() int {
	return m.White.NonPawn() + m.Black.NonPawn()
}

// Balance returns the material of one side minus the other's, in pawn
// units, from White's side when white is true.
func (m Material) Balance(white bool) int {
	diff := m.White.Value() - m.Black.Value()
	if !white {
		return -diff
	}
	return diff
}

// Normalize returns the lookup key for a position: piece placement, side to
// move, castling rights and en passant square, without the move counters.
func Normalize(fen string) (string, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return "", ErrInvalidFEN
	}
	if !isValidPiecePlacement(parts[0]) {
		return "", ErrInvalidFEN
	}
	if parts[1] != "w" && parts[1] != "b" {
		return "", ErrInvalidFEN
	}
	return strings.Join(parts[:4], " "), nil
}

// ParseMaterial counts the pieces in the placement field of a FEN string.
func ParseMaterial(fen string) (Material, error) {
	parts := strings.Fields(fen)
	if len(parts) == 0 {
		return Material{}, ErrInvalidFEN
	}

	var m Material
	for _, ch := range parts[0] {
		side := &m.White
		if ch >= 'a' && ch <= 'z' {
			side = &m.Black
		}
		switch ch {
		case 'P', 'p':
			side.Pawns++
		case 'N', 'n':
			side.Knights++
		case 'B', 'b':
			side.Bishops++
		case 'R', 'r':
			side.Rooks++
		case 'Q', 'q':
			side.Queens++
		case 'K', 'k', '/', '1', '2', '3', '4', '5', '6', '7', '8':
		default:
			return Material{}, ErrInvalidFEN
		}
	}
	return m, nil
}

// SideToMove returns "w" or "b" from a FEN string.
func SideToMove(fen string) (string, error) {
	parts := strings.Fields(fen)
	if len(parts) < 2 {
		return "", ErrInvalidFEN
	}
	if parts[1] != "w" && parts[1] != "b" {
		return "", ErrInvalidFEN
	}
	return parts[1], nil
}

func isValidPiecePlacement(placement string) bool {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return false
	}

	for _, rank := range ranks {
		squares := 0
		for _, ch := range rank {
			switch {
			case ch >= '1' && ch <= '8':
				squares += int(ch - '0')
			case strings.ContainsRune("PNBRQKpnbrqk", ch):
				squares++
			default:
				return false
			}
		}
		if squares != 8 {
			return false
		}
	}
	return true
}
