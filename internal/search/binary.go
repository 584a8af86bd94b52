// Package search finds positions in sorted JSONL evaluation shards.
package search

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrNotFound indicates the position was not found in the shard.
var ErrNotFound = errors.New("search: position not found")

// PV is one principal variation, scored from White's point of view.
type PV struct {
	CP   *int   `json:"cp,omitempty"`
	Mate *int   `json:"mate,omitempty"`
	Line string `json:"line"`
}

// Eval is one engine analysis of a position.
type Eval struct {
	PVs    []PV `json:"pvs"`
	Knodes int  `json:"knodes"`
	Depth  int  `json:"depth"`
}

// Record is one line of a shard, in the Lichess evaluation database format.
type Record struct {
	FEN   string `json:"fen"`
	Evals []Eval `json:"evals"`
}

// Best returns the first PV of the deepest analysis, or false when the
// record has no usable line.
func (r *Record) Best() (Eval, PV, bool) {
	best := -1
	for i, e := range r.Evals {
		if len(e.PVs) == 0 {
			continue
		}
		if best < 0 || e.Depth > r.Evals[best].Depth {
			best = i
		}
	}
	if best < 0 {
		return Eval{}, PV{}, false
	}
	e := r.Evals[best]
	return e, e.PVs[0], true
}

// Search searches for a normalized FEN in sorted JSONL shard data.
func Search(data []byte, targetFEN string) (*Record, error) {
	lines := splitLines(data)
	if len(lines) == 0 {
		return nil, ErrNotFound
	}

	idx := sort.Search(len(lines), func(i int) bool {
		return ExtractFEN(lines[i]) >= targetFEN
	})
	if idx >= len(lines) || ExtractFEN(lines[idx]) != targetFEN {
		return nil, ErrNotFound
	}

	var record Record
	if err := json.Unmarshal(lines[idx], &record); err != nil {
		return nil, fmt.Errorf("parsing eval record: %w", err)
	}
	return &record, nil
}

// splitLines splits data into lines, excluding empty lines.
func splitLines(data []byte) [][]byte {
	n := bytes.Count(data, []byte{'\n'}) + 1
	lines := make([][]byte, 0, n)
	for len(data) > 0 {
		idx := bytes.IndexByte(data, '\n')
		var line []byte
		if idx < 0 {
			line = data
			data = nil
		} else {
			line = data[:idx]
			data = data[idx+1:]
		}
		if len(line) > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}

// ExtractFEN reads the fen field of a JSON line without decoding the rest,
// which keeps the binary search cheap.
func ExtractFEN(line []byte) string {
	const prefix = `"fen":"`
	idx := bytes.Index(line, []byte(prefix))
	if idx < 0 {
		return ""
	}

	start := idx + len(prefix)
	end := bytes.IndexByte(line[start:], '"')
	if end < 0 {
		return ""
	}
	return string(line[start : start+end])
}
