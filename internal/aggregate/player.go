package aggregate

import (
	"sort"

	"github.com/notnil/chess"

	"github.com/discochess/gamelens/internal/classify"
	"github.com/discochess/gamelens/internal/phase"
)

// Record counts results.
type Record struct {
	Games  int `json:"games"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

func (r *Record) add(o Outcome) {
	r.Games++
	switch o {
	case Win:
		r.Wins++
	case Loss:
		r.Losses++
	case Draw:
		r.Draws++
	}
}

// WinRate returns wins over decided games. ok is false when no game was
// decided.
func (r Record) WinRate() (rate float64, ok bool) {
	decided := r.Wins + r.Losses + r.Draws
	if decided == 0 {
		return 0, false
	}
	return float64(r.Wins) / float64(decided), true
}

// PlayerPhase aggregates one phase across a player's games.
type PlayerPhase struct {
	Stats PhaseStats `json:"stats"`

	// Outcomes counts the phase outcomes, not the game results.
	Outcomes Record `json:"outcomes"`
}

// OpeningStats counts the results of one opening.
type OpeningStats struct {
	Code   string `json:"code,omitempty"`
	Name   string `json:"name"`
	Record Record `json:"record"`
}

// EloPoint is the player's rating in one game.
type EloPoint struct {
	GameID string `json:"game_id"`
	Date   string `json:"date,omitempty"`
	Elo    int    `json:"elo"`
}

// PlayerSummary aggregates every game of one player.
type PlayerSummary struct {
	Username string `json:"username"`
	Overall  Record `json:"overall"`
	AsWhite  Record `json:"as_white"`
	AsBlack  Record `json:"as_black"`

	Phases [phase.NumPhases]PlayerPhase `json:"phases"`
	Total  PhaseStats                   `json:"total"`

	// WithQuality counts game results among games containing at least one
	// ply of the classification.
	WithQuality map[classify.Quality]Record `json:"with_quality"`

	// Aggression describes the per-game average aggression.
	Aggression Distribution `json:"aggression"`

	// AggressionByResult compares per-game aggression of wins and losses.
	AggressionByResult *Comparison `json:"aggression_by_result,omitempty"`

	Openings []OpeningStats `json:"openings"`
	Elo      []EloPoint     `json:"elo"`
}

// Summarize aggregates the games in which username played. Games are
// matched on their Perspective, or on the header when Perspective is unset.
func Summarize(username string, games []*GameSummary) *PlayerSummary {
	ps := &PlayerSummary{
		Username:    username,
		WithQuality: make(map[classify.Quality]Record),
	}
	openings := make(map[string]*OpeningStats)
	var order []string
	var perGame, wins, losses []float64

	for _, g := range games {
		c := g.PerspectiveColor()
		if c == chess.NoColor {
			c, _ = g.Header.PlaysAs(username)
		}
		if c == chess.NoColor {
			continue
		}
		side := g.Side(c)

		ps.Overall.add(side.Result)
		if c == chess.White {
			ps.AsWhite.add(side.Result)
		} else {
			ps.AsBlack.add(side.Result)
		}

		for _, p := range phase.All {
			st := side.Phases[p]
			ps.Phases[p].Stats.merge(st)
			if st.Plies > 0 && st.Outcome != Unknown {
				ps.Phases[p].Outcomes.add(st.Outcome)
			}
		}
		ps.Total.merge(side.Total)

		for _, q := range classify.Counted {
			if side.Total.Counts.Get(q) > 0 {
				r := ps.WithQuality[q]
				r.add(side.Result)
				ps.WithQuality[q] = r
			}
		}

		if avg, ok := side.Total.AverageAggression(); ok {
			perGame = append(perGame, avg)
			switch side.Result {
			case Win:
				wins = append(wins, avg)
			case Loss:
				losses = append(losses, avg)
			}
		}

		name := g.Opening.Name
		if name == "" {
			name = "Unknown"
		}
		os, ok := openings[name]
		if !ok {
			os = &OpeningStats{Code: g.Opening.Code, Name: name}
			openings[name] = os
			order = append(order, name)
		}
		os.Record.add(side.Result)

		if side.Elo > 0 {
			ps.Elo = append(ps.Elo, EloPoint{GameID: g.ID, Date: g.Header.Date, Elo: side.Elo})
		}
	}

	ps.Aggression = Describe(perGame)
	if c, ok := Compare(wins, losses); ok {
		ps.AggressionByResult = &c
	}

	for _, name := range order {
		ps.Openings = append(ps.Openings, *openings[name])
	}
	// Most played first, first seen breaks ties.
	sort.SliceStable(ps.Openings, func(i, j int) bool {
		return ps.Openings[i].Record.Games > ps.Openings[j].Record.Games
	})
	return ps
}

func (s *PhaseStats) merge(o PhaseStats) {
	s.Plies += o.Plies
	s.Evaluated += o.Evaluated
	s.Unevaluated += o.Unevaluated
	for i := range s.Counts {
		s.Counts[i] += o.Counts[i]
	}
	s.AggressionTotal += o.AggressionTotal
	s.QualityTotal += o.QualityTotal
	for t, n := range o.Tags {
		if s.Tags == nil {
			s.Tags = make(TagCounts)
		}
		s.Tags[t] += n
	}
}
