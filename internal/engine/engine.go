// Package engine defines the position evaluation capability the analysis
// pipeline depends on, and the errors evaluators report.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/notnil/chess"
)

// Sentinel errors for well-defined evaluation failures.
var (
	// ErrTimeout indicates the evaluation did not finish within its deadline.
	ErrTimeout = errors.New("engine: evaluation timed out")

	// ErrEngine indicates the engine process failed.
	ErrEngine = errors.New("engine: engine failure")

	// ErrMalformedPosition indicates the position could not be evaluated as given.
	ErrMalformedPosition = errors.New("engine: malformed position")

	// ErrNotFound indicates a precomputed source has no evaluation for the position.
	ErrNotFound = errors.New("engine: position not found")

	// ErrClosed indicates the evaluator has been closed.
	ErrClosed = errors.New("engine: evaluator closed")
)

// Error is a failed evaluation of one position.
type Error struct {
	FEN string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("evaluating %q: %v", e.FEN, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Evaluator scores positions. Implementations must be safe for concurrent use.
type Evaluator interface {
	// Evaluate returns the evaluation of pos relative to the side to move.
	// Failures are reported as *Error.
	Evaluate(ctx context.Context, pos *chess.Position) (*Evaluation, error)

	// Close releases the evaluator's resources.
	Close() error
}

// Fallback returns an Evaluator that asks primary first and secondary when
// primary fails for any reason other than cancellation of ctx.
func Fallback(primary, secondary Evaluator) Evaluator {
	return &fallback{primary: primary, secondary: secondary}
}

type fallback struct {
	primary   Evaluator
	secondary Evaluator
}

var _ Evaluator = (*fallback)(nil)

func (f *fallback) Evaluate(ctx context.Context, pos *chess.Position) (*Evaluation, error) {
	ev, err := f.primary.Evaluate(ctx, pos)
	if err == nil {
		return ev, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	return f.secondary.Evaluate(ctx, pos)
}

func (f *fallback) Close() error {
	return errors.Join(f.primary.Close(), f.secondary.Close())
}
