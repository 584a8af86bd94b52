package engine

import (
	"strconv"

	"github.com/notnil/chess"
)

// Mate scores convert to centipawns as ±(MateScore - MateStep·n), never
// closer to zero than MateFloor.
const (
	MateScore = 1500
	MateStep  = 50
	MateFloor = 1000
)

// Evaluation is an engine's judgement of a position, relative to the side
// to move: positive values favor the player about to move.
type Evaluation struct {
	// Centipawns is nil if the position has a forced mate.
	Centipawns *int `json:"cp,omitempty"`

	// Mate is the number of moves until checkmate. Positive when the side
	// to move delivers it, negative when it is mated, zero when the side to
	// move is already checkmated. Nil if there is no forced mate.
	Mate *int `json:"mate,omitempty"`

	// Depth is the search depth used to compute this evaluation.
	Depth int `json:"depth,omitempty"`

	// PV is the best line in UCI notation.
	PV []string `json:"pv,omitempty"`
}

// Centipawns returns an evaluation of cp centipawns.
func Centipawns(cp int) *Evaluation {
	return &Evaluation{Centipawns: &cp}
}

// Mate returns an evaluation with a forced mate in n moves.
func Mate(n int) *Evaluation {
	return &Evaluation{Mate: &n}
}

// Terminal returns the evaluation of a finished position without consulting
// an engine: a checkmated side to move scores mate 0, stalemate scores 0.
func Terminal(pos *chess.Position) (*Evaluation, bool) {
	switch pos.Status() {
	case chess.Checkmate:
		return Mate(0), true
	case chess.Stalemate:
		return Centipawns(0), true
	}
	return nil, false
}

// IsMate returns true if the evaluation is a forced checkmate.
func (e *Evaluation) IsMate() bool {
	return e.Mate != nil
}

// CP returns the evaluation in centipawns, converting mate scores.
func (e *Evaluation) CP() int {
	if e.Mate != nil {
		n := *e.Mate
		if n > 0 {
			return max(MateScore-MateStep*n, MateFloor)
		}
		return -max(MateScore+MateStep*n, MateFloor)
	}
	if e.Centipawns != nil {
		return *e.Centipawns
	}
	return 0
}

// Negate returns the evaluation from the other side's point of view.
func (e *Evaluation) Negate() *Evaluation {
	out := &Evaluation{Depth: e.Depth, PV: e.PV}
	if e.Centipawns != nil {
		cp := -*e.Centipawns
		out.Centipawns = &cp
	}
	if e.Mate != nil {
		m := -*e.Mate
		out.Mate = &m
	}
	return out
}

// BestMove returns the first move of the best line, or "".
func (e *Evaluation) BestMove() string {
	if len(e.PV) == 0 {
		return ""
	}
	return e.PV[0]
}

// Score returns a human-readable score string.
// Examples: "+1.25", "-0.50", "#3", "#-5"
func (e *Evaluation) Score() string {
	if e.Mate != nil {
		return "#" + strconv.Itoa(*e.Mate)
	}
	if e.Centipawns == nil {
		return "?"
	}
	cp := *e.Centipawns
	sign := "+"
	if cp < 0 {
		sign = "-"
		cp = -cp
	}
	whole := cp / 100
	frac := cp % 100
	if frac < 10 {
		return sign + strconv.Itoa(whole) + ".0" + strconv.Itoa(frac)
	}
	return sign + strconv.Itoa(whole) + "." + strconv.Itoa(frac)
}
