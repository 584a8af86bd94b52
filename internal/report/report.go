// Package report renders analysis summaries as JSON, Markdown and terminal
// tables, and publishes them to a store.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/discochess/gamelens/internal/aggregate"
	"github.com/discochess/gamelens/internal/classify"
)

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// errWriter keeps the first write error and drops every later write.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}

func (e *errWriter) result() error {
	if e.err != nil {
		return fmt.Errorf("writing report: %w", e.err)
	}
	return nil
}

func average(s aggregate.PhaseStats) string {
	avg, ok := s.AverageAggression()
	if !ok {
		return "no data"
	}
	return fmt.Sprintf("%.2f", avg)
}

func averageQuality(s aggregate.PhaseStats) string {
	avg, ok := s.AverageQuality()
	if !ok {
		return "no data"
	}
	return fmt.Sprintf("%+.2f", avg)
}

func rate(r aggregate.Record) string {
	v, ok := r.WinRate()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", v*100)
}

func gameTitle(g *aggregate.GameSummary) string {
	title := fmt.Sprintf("%s vs %s (%s)", g.Header.White, g.Header.Black, g.Header.Result)
	if g.Header.Date != "" {
		title += " " + g.Header.Date
	}
	return title
}

func openingName(g *aggregate.GameSummary) string {
	o := g.Opening
	switch {
	case o.Name == "":
		return "Unknown"
	case o.Code != "":
		return o.Code + " " + o.Name
	default:
		return o.Name
	}
}

func qualityHeaders() []string {
	h := make([]string, 0, len(classify.Counted))
	for _, q := range classify.Counted {
		h = append(h, strings.ReplaceAll(q.String(), "_", " "))
	}
	return h
}

func qualityCells(c aggregate.QualityCounts) []string {
	cells := make([]string, 0, len(classify.Counted))
	for _, q := range classify.Counted {
		cells = append(cells, fmt.Sprint(c.Get(q)))
	}
	return cells
}
