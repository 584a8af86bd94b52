package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/discochess/gamelens/internal/aggregate"
	"github.com/discochess/gamelens/internal/classify"
	"github.com/discochess/gamelens/internal/phase"
)

var (
	titleColor  = lipgloss.Color("#F780FF")
	labelColor  = lipgloss.Color("#8BE9FD")
	mutedColor  = lipgloss.Color("#6272A4")
	warnColor   = lipgloss.Color("#FF5555")
	borderColor = lipgloss.Color("#44475A")

	titleStyle  = lipgloss.NewStyle().Foreground(titleColor).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(labelColor).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	warnStyle   = lipgloss.NewStyle().Foreground(warnColor)
	headerStyle = lipgloss.NewStyle().Foreground(labelColor).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Text writes styled terminal reports. Styles degrade to plain text when
// the output is not a terminal.
type Text struct {
	w *errWriter
}

// NewText creates a Text writer.
func NewText(w io.Writer) *Text {
	return &Text{w: &errWriter{w: w}}
}

// WriteGame writes the summary of one game.
func (t *Text) WriteGame(g *aggregate.GameSummary) error {
	fmt.Fprintln(t.w, titleStyle.Render(gameTitle(g)))
	t.field("Opening", openingName(g))
	if g.Deviation > 0 {
		t.field("Left theory", fmt.Sprintf("ply %d", g.Deviation))
	}
	if g.Incomplete {
		fmt.Fprintln(t.w, warnStyle.Render(fmt.Sprintf("%d ply(s) could not be evaluated", len(g.Errors))))
	}

	headers := append([]string{"Side", "Phase"}, qualityHeaders()...)
	headers = append(headers, "Quality", "Aggr", "Outcome")
	var rows [][]string
	for _, s := range []*aggregate.SideSummary{&g.White, &g.Black} {
		for _, p := range phase.All {
			st := s.Phases[p]
			if st.Plies == 0 {
				continue
			}
			row := append([]string{s.Color, p.String()}, qualityCells(st.Counts)...)
			rows = append(rows, append(row, averageQuality(st), average(st), st.Outcome.String()))
		}
	}
	fmt.Fprintln(t.w, render(headers, rows))
	fmt.Fprintln(t.w)
	return t.w.result()
}

// WritePlayer writes the cross-game summary of a player.
func (t *Text) WritePlayer(p *aggregate.PlayerSummary) error {
	fmt.Fprintln(t.w, titleStyle.Render(p.Username))
	t.field("Games", fmt.Sprintf("%d (%d W / %d L / %d D)", p.Overall.Games, p.Overall.Wins, p.Overall.Losses, p.Overall.Draws))
	t.field("Win rate", fmt.Sprintf("%s overall, %s as white, %s as black", rate(p.Overall), rate(p.AsWhite), rate(p.AsBlack)))
	if p.Aggression.N > 0 {
		t.field("Aggression", fmt.Sprintf("mean %.2f, std dev %.2f, median %.2f", p.Aggression.Mean, p.Aggression.StdDev, p.Aggression.Median))
	}
	if c := p.AggressionByResult; c != nil {
		line := fmt.Sprintf("%.2f in wins vs %.2f in losses (p=%.3f)", c.A.Mean, c.B.Mean, c.P)
		if !c.Significant {
			line += mutedStyle.Render(" not significant")
		}
		t.field("Aggression by result", line)
	}
	fmt.Fprintln(t.w)

	headers := append([]string{"Phase"}, qualityHeaders()...)
	headers = append(headers, "Quality", "Aggr", "Won")
	var rows [][]string
	for _, ph := range phase.All {
		pp := p.Phases[ph]
		row := append([]string{ph.String()}, qualityCells(pp.Stats.Counts)...)
		rows = append(rows, append(row, averageQuality(pp.Stats), average(pp.Stats), rate(pp.Outcomes)))
	}
	fmt.Fprintln(t.w, render(headers, rows))

	rows = rows[:0]
	for _, q := range classify.Counted {
		r := p.WithQuality[q]
		rows = append(rows, []string{q.String(), fmt.Sprint(r.Games), rate(r)})
	}
	fmt.Fprintln(t.w, render([]string{"Quality", "Games", "Win rate"}, rows))

	if len(p.Openings) > 0 {
		rows = rows[:0]
		for _, o := range p.Openings {
			name := strings.TrimSpace(o.Code + " " + o.Name)
			rows = append(rows, []string{name, fmt.Sprint(o.Record.Games), rate(o.Record)})
		}
		fmt.Fprintln(t.w, render([]string{"Opening", "Games", "Win rate"}, rows))
	}
	return t.w.result()
}

func (t *Text) field(label, value string) {
	fmt.Fprintf(t.w, "%s %s\n", labelStyle.Render(label+":"), value)
}

func render(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Render()
}
