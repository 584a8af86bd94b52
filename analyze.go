package gamelens

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/discochess/gamelens/internal/aggregate"
	"github.com/discochess/gamelens/internal/aggression"
	"github.com/discochess/gamelens/internal/classify"
	"github.com/discochess/gamelens/internal/engine"
	"github.com/discochess/gamelens/internal/pgnio"
	"github.com/discochess/gamelens/internal/replay"
	"github.com/discochess/gamelens/internal/stats"
	"github.com/discochess/gamelens/internal/theory"
)

// gameNamespace scopes game IDs derived from game content.
var gameNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/discochess/gamelens/game"))

var startFEN = chess.StartingPosition().String()

// analyze runs the pipeline for one game. It either returns a finished
// summary or an error; a game abandoned on cancellation leaves nothing
// behind.
func (a *Analyzer) analyze(ctx context.Context, game *chess.Game, h pgnio.Header, username string) (*aggregate.GameSummary, error) {
	rg, err := replay.Replay(game)
	if err != nil {
		return nil, err
	}
	perspective, _ := h.PlaysAs(username)
	id := gameID(h, rg)
	log := a.logger.With(zap.String("game", id))

	evals, evalErrs, err := a.evaluatePositions(ctx, rg, log)
	if err != nil {
		return nil, err
	}
	book := a.followTheory(rg)
	phases := a.segmenter.Segment(rg.Plies)

	b := aggregate.NewBuilder(a.cfg, id, h, perspective)
	b.SetOpening(book.opening, book.deviation)

	for i, p := range rg.Plies {
		before, after := evals[i], evals[i+1]
		evaluated := before != nil && after != nil

		var delta int
		rec := aggregate.MoveRecord{
			Ply:   p.Number(),
			Color: aggregate.ColorName(p.Mover),
			SAN:   p.SAN,
			UCI:   p.UCI,
			Phase: phases[i],
			Book:  book.inBook[i],
		}
		if evaluated {
			// after is relative to the opponent of the mover.
			delta = -after.CP() - before.CP()
			rec.Delta = &delta
		}
		if after != nil {
			white := after.CP()
			if p.After.Turn() == chess.Black {
				white = -white
			}
			rec.Eval = &white
		}
		if before != nil {
			rec.BestMove = before.BestMove()
		}
		if msg := plyError(evalErrs[i], evalErrs[i+1]); msg != "" {
			rec.Err = msg
		}

		// A failed evaluation leaves the ply unevaluated even in book.
		if evaluated {
			rec.Quality = classify.Classify(delta, rec.Book, a.cfg.Thresholds)
		} else {
			rec.Quality = classify.Unevaluated
		}
		if rec.Quality == classify.Unevaluated {
			a.stats.IncCounter(stats.MetricPliesUnevaluated, 1)
		} else {
			a.stats.IncCounter(stats.MetricPliesClassified, 1)
		}

		rec.Tags = a.detector.Detect(rg.Plies, i, delta, evaluated)
		rec.Aggression = aggression.Score(rec.Tags, a.cfg.RecapturePolicy)

		if err := b.Add(rec); err != nil {
			return nil, err
		}
	}

	summary, err := b.Finish()
	if err != nil {
		return nil, err
	}
	a.stats.IncCounter(stats.MetricGamesAnalyzed, 1)
	if summary.Incomplete {
		a.stats.IncCounter(stats.MetricGamesIncomplete, 1)
	}
	log.Debug("game analyzed",
		zap.Int("plies", len(rg.Plies)),
		zap.Bool("incomplete", summary.Incomplete),
		zap.String("opening", summary.Opening.Name),
	)
	return summary, nil
}

// evaluatePositions evaluates every position of the game in order. A failed
// position is left nil and its error recorded; only cancellation of ctx
// aborts the game.
func (a *Analyzer) evaluatePositions(ctx context.Context, rg *replay.Game, log *zap.Logger) ([]*engine.Evaluation, []error, error) {
	evals := make([]*engine.Evaluation, len(rg.Positions))
	errs := make([]error, len(rg.Positions))

	for i, pos := range rg.Positions {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if ev, ok := engine.Terminal(pos); ok {
			evals[i] = ev
			continue
		}

		ev, err := a.evaluate(ctx, pos)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			errs[i] = err
			log.Warn("evaluation failed",
				zap.Int("ply", i),
				zap.String("fen", pos.String()),
				zap.Error(err),
			)
			continue
		}
		evals[i] = ev
	}
	return evals, errs, nil
}

func (a *Analyzer) evaluate(ctx context.Context, pos *chess.Position) (*engine.Evaluation, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Engine.Timeout)
	defer cancel()

	a.stats.IncCounter(stats.MetricEngineCalls, 1)
	start := time.Now()
	ev, err := a.evaluator.Evaluate(ctx, pos)
	a.stats.ObserveHistogram(stats.MetricEngineLatency, time.Since(start).Seconds())

	if err != nil {
		a.stats.IncCounter(stats.MetricEngineErrors, 1)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, engine.ErrTimeout) {
			err = &engine.Error{FEN: pos.String(), Err: fmt.Errorf("%w: %w", engine.ErrTimeout, err)}
		}
		return nil, err
	}
	if ev == nil {
		a.stats.IncCounter(stats.MetricEngineErrors, 1)
		return nil, &engine.Error{FEN: pos.String(), Err: engine.ErrEngine}
	}
	return ev, nil
}

func plyError(before, after error) string {
	var msgs []string
	for _, err := range []error{before, after} {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return strings.Join(msgs, "; ")
}

type theoryLine struct {
	inBook    []bool
	opening   theory.Opening
	deviation int
}

// followTheory marks the book plies of the game. A ply is a book move while
// it is within BookDepth and every move so far is in the book; once the game
// leaves theory it never returns.
func (a *Analyzer) followTheory(rg *replay.Game) theoryLine {
	line := theoryLine{inBook: make([]bool, len(rg.Plies))}
	if a.book == nil || rg.Positions[0].String() != startFEN {
		return line
	}

	moves := make([]*chess.Move, len(rg.Plies))
	for i, p := range rg.Plies {
		moves[i] = p.Move
	}
	for i := range rg.Plies {
		o, ok := a.book.Lookup(moves[:i+1])
		if o.Name != "" {
			line.opening = o
		}
		if !ok {
			line.deviation = i + 1
			break
		}
		line.inBook[i] = i+1 <= a.cfg.BookDepth
	}
	return line
}

// gameID derives a stable ID from the game's tags and moves, so that
// re-analyzing a game yields the same summary.
func gameID(h pgnio.Header, rg *replay.Game) string {
	var sb strings.Builder
	for _, s := range []string{h.Event, h.Site, h.Date, h.White, h.Black, h.Result, rg.Positions[0].String()} {
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	for _, p := range rg.Plies {
		sb.WriteString(p.UCI)
		sb.WriteByte(' ')
	}
	return uuid.NewSHA1(gameNamespace, []byte(sb.String())).String()
}
