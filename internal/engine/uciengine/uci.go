// Package uciengine evaluates positions with a UCI engine subprocess such
// as Stockfish.
package uciengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"
	"go.uber.org/zap"

	"github.com/discochess/gamelens/internal/engine"
)

// Compile-time check that Engine implements engine.Evaluator.
var _ engine.Evaluator = (*Engine)(nil)

// Engine drives one engine process. Calls are serialized; a call that
// exceeds its timeout kills the process and the next call starts a new one.
type Engine struct {
	path string
	opts options

	mu     sync.Mutex
	proc   *uci.Engine
	closed bool
}

type options struct {
	depth    int
	moveTime time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// Option configures an Engine.
type Option interface {
	apply(*options)
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithDepth limits the search depth. Zero means no depth limit.
func WithDepth(depth int) Option {
	return optionFunc(func(o *options) {
		o.depth = depth
	})
}

// WithMoveTime limits the search time per position.
func WithMoveTime(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.moveTime = d
	})
}

// WithTimeout bounds each Evaluate call, including process startup.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.timeout = d
	})
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// New starts the engine at path. Failing to start is returned immediately.
func New(path string, opts ...Option) (*Engine, error) {
	o := options{
		depth:    15,
		moveTime: 200 * time.Millisecond,
		timeout:  5 * time.Second,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt.apply(&o)
	}
	o.logger = o.logger.Named("uci")

	e := &Engine{path: path, opts: o}
	if err := e.start(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) start() error {
	proc, err := uci.New(e.path)
	if err != nil {
		return fmt.Errorf("starting engine %s: %w", e.path, err)
	}
	if err := proc.Run(uci.CmdUCI, uci.CmdIsReady, uci.CmdUCINewGame); err != nil {
		proc.Close()
		return fmt.Errorf("initializing engine %s: %w", e.path, err)
	}
	e.proc = proc
	e.opts.logger.Debug("engine started", zap.String("path", e.path))
	return nil
}

// kill discards the current process. The caller holds e.mu.
func (e *Engine) kill() {
	if e.proc == nil {
		return
	}
	if err := e.proc.Close(); err != nil {
		e.opts.logger.Debug("closing engine", zap.Error(err))
	}
	e.proc = nil
}

// Evaluate searches pos and returns the score relative to the side to move.
func (e *Engine) Evaluate(ctx context.Context, pos *chess.Position) (*engine.Evaluation, error) {
	fen := pos.String()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, &engine.Error{FEN: fen, Err: engine.ErrClosed}
	}
	if e.proc == nil {
		if err := e.start(); err != nil {
			return nil, &engine.Error{FEN: fen, Err: fmt.Errorf("%w: %v", engine.ErrEngine, err)}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.timeout)
	defer cancel()

	proc := e.proc
	done := make(chan error, 1)
	go func() {
		done <- proc.Run(
			uci.CmdPosition{Position: pos},
			uci.CmdGo{Depth: e.opts.depth, MoveTime: e.opts.moveTime},
		)
	}()

	select {
	case err := <-done:
		if err != nil {
			e.kill()
			return nil, &engine.Error{FEN: fen, Err: fmt.Errorf("%w: %v", engine.ErrEngine, err)}
		}
	case <-ctx.Done():
		e.kill()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &engine.Error{FEN: fen, Err: engine.ErrTimeout}
		}
		return nil, &engine.Error{FEN: fen, Err: ctx.Err()}
	}

	return toEvaluation(proc.SearchResults()), nil
}

func toEvaluation(res uci.SearchResults) *engine.Evaluation {
	info := res.Info

	var ev *engine.Evaluation
	if info.Score.Mate != 0 {
		ev = engine.Mate(info.Score.Mate)
	} else {
		ev = engine.Centipawns(info.Score.CP)
	}
	ev.Depth = info.Depth

	for _, m := range info.PV {
		ev.PV = append(ev.PV, m.String())
	}
	if len(ev.PV) == 0 && res.BestMove != nil {
		ev.PV = []string{res.BestMove.String()}
	}
	return ev
}

// Close stops the engine process. Later calls to Evaluate fail with
// engine.ErrClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	if e.proc == nil {
		return nil
	}
	err := e.proc.Close()
	e.proc = nil
	return err
}
