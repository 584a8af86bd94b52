// Package classify maps an evaluation change to a move quality.
package classify

import (
	"fmt"

	"github.com/discochess/gamelens/internal/config"
)

// Quality is the classification of a single ply.
type Quality int

const (
	// Unevaluated marks a ply whose evaluation failed. It is never counted.
	Unevaluated Quality = iota

	// Neutral is an evaluated ply that falls between the thresholds.
	// It is not counted in any bucket.
	Neutral

	Blunder
	Mistake
	Inaccuracy
	Good
	Great
	Book
)

// NumQualities is the size of an array indexed by Quality.
const NumQualities = int(Book) + 1

// Counted lists the qualities that have a bucket in a summary, in report
// order.
var Counted = []Quality{Blunder, Mistake, Inaccuracy, Good, Great, Book}

var names = [...]string{
	Unevaluated: "unevaluated",
	Neutral:     "neutral",
	Blunder:     "blunder",
	Mistake:     "mistake",
	Inaccuracy:  "inaccuracy",
	Good:        "good_move",
	Great:       "great_move",
	Book:        "book_move",
}

var weights = [...]float64{
	Blunder:    -3.0,
	Mistake:    -1.0,
	Inaccuracy: -0.5,
	Good:       0.5,
	Great:      1.0,
	Book:       0.0,
}

// String returns the snake_case name of q.
func (q Quality) String() string {
	if q < 0 || int(q) >= len(names) {
		return fmt.Sprintf("quality(%d)", int(q))
	}
	return names[q]
}

// Weight returns the fixed weight of q. Unevaluated and Neutral weigh 0.
func (q Quality) Weight() float64 {
	if q < 0 || int(q) >= len(weights) {
		return 0
	}
	return weights[q]
}

// IsCounted reports whether q has a bucket in a summary.
func (q Quality) IsCounted() bool {
	return q >= Blunder && q <= Book
}

// MarshalText implements encoding.TextMarshaler.
func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// Parse returns the Quality named s.
func Parse(s string) (Quality, error) {
	for q, name := range names {
		if name == s {
			return Quality(q), nil
		}
	}
	return Unevaluated, fmt.Errorf("classify: unknown quality %q", s)
}

// Classify returns the quality of a ply from the change in evaluation
// (centipawns, mover's perspective) and whether the ply is a book move.
// A book move is Book regardless of delta.
func Classify(delta int, book bool, t config.Thresholds) Quality {
	if book {
		return Book
	}
	switch {
	case delta <= t.Blunder:
		return Blunder
	case delta <= t.Mistake:
		return Mistake
	case delta <= t.Inaccuracy:
		return Inaccuracy
	case delta >= t.Great:
		return Great
	case delta >= t.Good:
		return Good
	default:
		return Neutral
	}
}
