// Package aggregate rolls per-ply analysis into game and player summaries.
package aggregate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/notnil/chess"

	"github.com/discochess/gamelens/internal/aggression"
	"github.com/discochess/gamelens/internal/classify"
	"github.com/discochess/gamelens/internal/config"
	"github.com/discochess/gamelens/internal/pgnio"
	"github.com/discochess/gamelens/internal/phase"
	"github.com/discochess/gamelens/internal/theory"
)

// ErrFinished indicates a Builder was used after Finish.
var ErrFinished = errors.New("aggregate: game already finished")

// Outcome is a result from one side's point of view.
type Outcome int

const (
	Unknown Outcome = iota
	Win
	Loss
	Draw
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Loss:
		return "loss"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Flip returns the outcome for the other side.
func (o Outcome) Flip() Outcome {
	switch o {
	case Win:
		return Loss
	case Loss:
		return Win
	}
	return o
}

// ResultFor returns the game result from color c's view.
func ResultFor(h pgnio.Header, c chess.Color) Outcome {
	switch h.Result {
	case pgnio.Draw:
		return Draw
	case pgnio.WhiteWins, pgnio.BlackWins:
		if h.Winner() == c {
			return Win
		}
		return Loss
	}
	return Unknown
}

// OutcomeFromEval judges a centipawn score given from White's view.
func OutcomeFromEval(whiteCP, drawMargin int, c chess.Color) Outcome {
	if whiteCP == 0 || (whiteCP > -drawMargin && whiteCP < drawMargin) {
		return Draw
	}
	o := Loss
	if whiteCP > 0 {
		o = Win
	}
	if c == chess.Black {
		o = o.Flip()
	}
	return o
}

// QualityCounts counts plies per classification.
type QualityCounts [classify.NumQualities]int

// Get returns the count for q.
func (c QualityCounts) Get(q classify.Quality) int {
	if q < 0 || int(q) >= len(c) {
		return 0
	}
	return c[q]
}

// MarshalJSON encodes the counted buckets by name.
func (c QualityCounts) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, len(classify.Counted))
	for _, q := range classify.Counted {
		m[q.String()] = c[q]
	}
	return json.Marshal(m)
}

// TagCounts counts plies per aggression tag.
type TagCounts map[aggression.Tag]int

// PhaseStats are the statistics of one side over a set of plies.
type PhaseStats struct {
	Plies       int           `json:"plies"`
	Evaluated   int           `json:"evaluated"`
	Unevaluated int           `json:"unevaluated"`
	Counts      QualityCounts `json:"counts"`

	// AggressionTotal sums the aggression of evaluated plies only.
	AggressionTotal float64   `json:"aggression_total"`
	Tags            TagCounts `json:"tags"`
	Outcome         Outcome   `json:"outcome"`

	// QualityTotal sums the classification weight of evaluated plies.
	QualityTotal float64 `json:"quality_total"`
}

// AverageAggression returns the mean aggression over evaluated plies. ok is
// false when no ply was evaluated.
func (s PhaseStats) AverageAggression() (avg float64, ok bool) {
	if s.Evaluated == 0 {
		return 0, false
	}
	return s.AggressionTotal / float64(s.Evaluated), true
}

// AverageQuality returns the mean classification weight over evaluated
// plies, from -3 for all blunders to 1 for all great moves.
func (s PhaseStats) AverageQuality() (avg float64, ok bool) {
	if s.Evaluated == 0 {
		return 0, false
	}
	return s.QualityTotal / float64(s.Evaluated), true
}

// HasData reports whether any ply was evaluated.
func (s PhaseStats) HasData() bool {
	return s.Evaluated > 0
}

func (s PhaseStats) MarshalJSON() ([]byte, error) {
	type plain PhaseStats
	out := struct {
		plain
		AverageAggression *float64 `json:"average_aggression"`
		AverageQuality    *float64 `json:"average_quality"`
		NoData            bool     `json:"no_data,omitempty"`
	}{plain: plain(s)}
	if avg, ok := s.AverageAggression(); ok {
		quality, _ := s.AverageQuality()
		out.AverageAggression = &avg
		out.AverageQuality = &quality
	} else {
		out.NoData = true
	}
	return json.Marshal(out)
}

func (s *PhaseStats) add(m MoveRecord) {
	s.Plies++
	if m.Quality == classify.Unevaluated {
		s.Unevaluated++
		return
	}
	s.Evaluated++
	s.Counts[m.Quality]++
	s.AggressionTotal += m.Aggression
	s.QualityTotal += m.Quality.Weight()
	for _, t := range m.Tags.List() {
		if s.Tags == nil {
			s.Tags = make(TagCounts)
		}
		s.Tags[t]++
	}
}

// MoveRecord is the analysis of one ply.
type MoveRecord struct {
	Ply   int         `json:"ply"`
	Color string      `json:"color"`
	SAN   string      `json:"san"`
	UCI   string      `json:"uci"`
	Phase phase.Phase `json:"phase"`
	Book  bool        `json:"book,omitempty"`

	Quality classify.Quality `json:"quality"`

	// Delta is the evaluation change from the mover's view, nil when
	// either adjacent position was not evaluated.
	Delta *int `json:"delta,omitempty"`

	// Eval is the evaluation after the ply in centipawns from White's view.
	Eval     *int   `json:"eval,omitempty"`
	BestMove string `json:"best_move,omitempty"`

	Tags       aggression.Tags `json:"tags"`
	Aggression float64         `json:"aggression"`

	Err string `json:"error,omitempty"`
}

// Mover returns the color that played the ply.
func (m MoveRecord) Mover() chess.Color {
	if m.Color == "black" {
		return chess.Black
	}
	return chess.White
}

// SideSummary summarizes one player of a game.
type SideSummary struct {
	Color  string  `json:"color"`
	Player string  `json:"player"`
	Elo    int     `json:"elo,omitempty"`
	Result Outcome `json:"result"`

	Phases [phase.NumPhases]PhaseStats `json:"phases"`
	Total  PhaseStats                  `json:"total"`
}

// Phase returns the statistics for p.
func (s *SideSummary) Phase(p phase.Phase) PhaseStats {
	return s.Phases[p]
}

// GameSummary is the analysis of a finished game. It is immutable once
// returned by Builder.Finish.
type GameSummary struct {
	ID     string       `json:"id"`
	Header pgnio.Header `json:"header"`

	// Perspective is the color of the analyzed username, or empty.
	Perspective string `json:"perspective,omitempty"`

	Opening theory.Opening `json:"opening"`

	// Deviation is the first ply that left opening theory, or 0 when the
	// game never left it.
	Deviation int `json:"deviation,omitempty"`

	White SideSummary  `json:"white"`
	Black SideSummary  `json:"black"`
	Moves []MoveRecord `json:"moves"`

	// Incomplete is set when at least one ply could not be evaluated or
	// recorded an evaluation error.
	Incomplete bool     `json:"incomplete"`
	Errors     []string `json:"errors,omitempty"`
}

// Side returns the summary of color c.
func (g *GameSummary) Side(c chess.Color) *SideSummary {
	if c == chess.Black {
		return &g.Black
	}
	return &g.White
}

// PerspectiveColor returns the analyzed color, or chess.NoColor.
func (g *GameSummary) PerspectiveColor() chess.Color {
	switch g.Perspective {
	case "white":
		return chess.White
	case "black":
		return chess.Black
	}
	return chess.NoColor
}

// ColorName returns "white", "black" or "".
func ColorName(c chess.Color) string {
	switch c {
	case chess.White:
		return "white"
	case chess.Black:
		return "black"
	}
	return ""
}

// Builder accumulates the plies of one game. A Builder is owned by a single
// goroutine and produces exactly one summary.
type Builder struct {
	cfg         config.Config
	id          string
	header      pgnio.Header
	perspective chess.Color
	opening     theory.Opening
	deviation   int
	moves       []MoveRecord
	errs        []string
	finished    bool
}

// NewBuilder starts the summary of a game.
func NewBuilder(cfg config.Config, id string, h pgnio.Header, perspective chess.Color) *Builder {
	return &Builder{cfg: cfg, id: id, header: h, perspective: perspective}
}

// SetOpening records the deepest named opening and the deviation ply.
func (b *Builder) SetOpening(o theory.Opening, deviation int) {
	b.opening = o
	b.deviation = deviation
}

// Add appends the next ply. Plies must be added in order.
func (b *Builder) Add(m MoveRecord) error {
	if b.finished {
		return ErrFinished
	}
	if want := len(b.moves) + 1; m.Ply != want {
		return fmt.Errorf("aggregate: ply %d added out of order, want %d", m.Ply, want)
	}
	b.moves = append(b.moves, m)
	if m.Err != "" {
		b.errs = append(b.errs, fmt.Sprintf("ply %d: %s", m.Ply, m.Err))
	}
	return nil
}

// Finish builds the summary. The Builder cannot be used afterwards.
func (b *Builder) Finish() (*GameSummary, error) {
	if b.finished {
		return nil, ErrFinished
	}
	b.finished = true

	g := &GameSummary{
		ID:          b.id,
		Header:      b.header,
		Perspective: ColorName(b.perspective),
		Opening:     b.opening,
		Deviation:   b.deviation,
		Moves:       b.moves,
		Errors:      b.errs,
	}
	for _, c := range []chess.Color{chess.White, chess.Black} {
		s := g.Side(c)
		s.Color = ColorName(c)
		s.Player = b.header.Player(c)
		s.Elo = b.header.Elo(c)
		s.Result = ResultFor(b.header, c)
	}

	for _, m := range b.moves {
		if m.Quality == classify.Unevaluated || m.Err != "" {
			g.Incomplete = true
		}
		s := g.Side(m.Mover())
		s.Phases[m.Phase].add(m)
		s.Total.add(m)
	}

	for _, p := range phase.All {
		eval, ok := b.phaseEndEval(p)
		if !ok {
			continue
		}
		g.White.Phases[p].Outcome = OutcomeFromEval(eval, b.cfg.DrawMargin, chess.White)
		g.Black.Phases[p].Outcome = OutcomeFromEval(eval, b.cfg.DrawMargin, chess.Black)
	}
	return g, nil
}

// phaseEndEval returns the last known evaluation within phase p.
func (b *Builder) phaseEndEval(p phase.Phase) (int, bool) {
	for i := len(b.moves) - 1; i >= 0; i-- {
		m := b.moves[i]
		if m.Phase < p {
			break
		}
		if m.Phase == p && m.Eval != nil {
			return *m.Eval, true
		}
	}
	return 0, false
}
