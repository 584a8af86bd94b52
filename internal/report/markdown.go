package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/discochess/gamelens/internal/aggregate"
	"github.com/discochess/gamelens/internal/classify"
	"github.com/discochess/gamelens/internal/phase"
)

// Markdown writes reports in Markdown format.
type Markdown struct {
	w *errWriter
}

// NewMarkdown creates a Markdown writer.
func NewMarkdown(w io.Writer) *Markdown {
	return &Markdown{w: &errWriter{w: w}}
}

// WriteGame writes the summary of one game.
func (m *Markdown) WriteGame(g *aggregate.GameSummary) error {
	fmt.Fprintf(m.w, "## %s\n\n", gameTitle(g))
	fmt.Fprintf(m.w, "- **Opening:** %s\n", openingName(g))
	if g.Deviation > 0 {
		fmt.Fprintf(m.w, "- **Left theory:** ply %d\n", g.Deviation)
	}
	if g.Incomplete {
		fmt.Fprintf(m.w, "- **Incomplete evaluation:** %d error(s)\n", len(g.Errors))
	}
	fmt.Fprintln(m.w)

	headers := append([]string{"Side", "Phase"}, qualityHeaders()...)
	headers = append(headers, "Avg quality", "Avg aggression", "Outcome")
	m.tableHeader(headers)
	for _, s := range []*aggregate.SideSummary{&g.White, &g.Black} {
		for _, p := range phase.All {
			st := s.Phases[p]
			if st.Plies == 0 {
				continue
			}
			row := append([]string{s.Color, p.String()}, qualityCells(st.Counts)...)
			row = append(row, averageQuality(st), average(st), st.Outcome.String())
			m.tableRow(row)
		}
	}
	fmt.Fprintln(m.w)
	return m.w.result()
}

// WritePlayer writes the cross-game summary of a player.
func (m *Markdown) WritePlayer(p *aggregate.PlayerSummary) error {
	fmt.Fprintf(m.w, "# %s\n\n", p.Username)
	fmt.Fprintf(m.w, "- **Games:** %d (%d W / %d L / %d D)\n", p.Overall.Games, p.Overall.Wins, p.Overall.Losses, p.Overall.Draws)
	fmt.Fprintf(m.w, "- **Win rate:** %s overall, %s as white, %s as black\n", rate(p.Overall), rate(p.AsWhite), rate(p.AsBlack))
	if p.Aggression.N > 0 {
		fmt.Fprintf(m.w, "- **Aggression per game:** mean %.2f, std dev %.2f\n", p.Aggression.Mean, p.Aggression.StdDev)
	}
	if c := p.AggressionByResult; c != nil {
		fmt.Fprintf(m.w, "- **Aggression in wins vs losses:** %.2f vs %.2f (p=%.3f)\n", c.A.Mean, c.B.Mean, c.P)
	}
	fmt.Fprintln(m.w)

	fmt.Fprintln(m.w, "## By phase")
	fmt.Fprintln(m.w)
	headers := append([]string{"Phase"}, qualityHeaders()...)
	headers = append(headers, "Avg quality", "Avg aggression", "Phase win rate")
	m.tableHeader(headers)
	for _, ph := range phase.All {
		pp := p.Phases[ph]
		row := append([]string{ph.String()}, qualityCells(pp.Stats.Counts)...)
		row = append(row, averageQuality(pp.Stats), average(pp.Stats), rate(pp.Outcomes))
		m.tableRow(row)
	}
	fmt.Fprintln(m.w)

	fmt.Fprintln(m.w, "## Win rate by move quality")
	fmt.Fprintln(m.w)
	m.tableHeader([]string{"Quality", "Games", "Win rate"})
	for _, q := range classify.Counted {
		r := p.WithQuality[q]
		m.tableRow([]string{q.String(), fmt.Sprint(r.Games), rate(r)})
	}
	fmt.Fprintln(m.w)

	if len(p.Openings) > 0 {
		fmt.Fprintln(m.w, "## Openings")
		fmt.Fprintln(m.w)
		m.tableHeader([]string{"Opening", "Games", "W", "L", "D"})
		for _, o := range p.Openings {
			name := o.Name
			if o.Code != "" {
				name = o.Code + " " + name
			}
			m.tableRow([]string{name, fmt.Sprint(o.Record.Games), fmt.Sprint(o.Record.Wins), fmt.Sprint(o.Record.Losses), fmt.Sprint(o.Record.Draws)})
		}
		fmt.Fprintln(m.w)
	}
	return m.w.result()
}

func (m *Markdown) tableHeader(cols []string) {
	m.tableRow(cols)
	seps := make([]string, len(cols))
	for i, c := range cols {
		seps[i] = strings.Repeat("-", max(len(c), 3))
	}
	m.tableRow(seps)
}

func (m *Markdown) tableRow(cells []string) {
	fmt.Fprintf(m.w, "| %s |\n", strings.Join(cells, " | "))
}
