// Package theory decides whether a game is still following known opening
// theory.
package theory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/notnil/chess"
	"github.com/notnil/chess/opening"
)

// Opening names a known line.
type Opening struct {
	Code string `json:"code,omitempty"`
	Name string `json:"name"`
}

// Book reports opening theory membership.
type Book interface {
	// Lookup reports whether moves is a prefix of a known line, and the
	// deepest named opening reached along moves.
	Lookup(moves []*chess.Move) (Opening, bool)
}

// ErrBadLine indicates a line that is not a sequence of UCI moves.
var ErrBadLine = errors.New("theory: malformed line")

// Tree is a Book backed by a move tree. It is safe for concurrent lookups
// once built.
type Tree struct {
	root *node
}

type node struct {
	children map[string]*node
	opening  *Opening
}

var _ Book = (*Tree)(nil)

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{root: &node{}}
}

// Insert adds a line of UCI moves ending in the named opening.
func (t *Tree) Insert(line []string, o Opening) error {
	n := t.root
	for _, m := range line {
		if len(m) < 4 || len(m) > 5 {
			return fmt.Errorf("%w: %q", ErrBadLine, m)
		}
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child, ok := n.children[m]
		if !ok {
			child = &node{}
			n.children[m] = child
		}
		n = child
	}
	n.opening = &o
	return nil
}

// Lookup implements Book.
func (t *Tree) Lookup(moves []*chess.Move) (Opening, bool) {
	var deepest Opening
	n := t.root
	for _, m := range moves {
		child, ok := n.children[m.String()]
		if !ok {
			return deepest, false
		}
		n = child
		if n.opening != nil {
			deepest = *n.opening
		}
	}
	return deepest, true
}

var (
	ecoOnce sync.Once
	ecoTree *Tree
	ecoErr  error
)

// NewECO returns a Book of the ECO opening classification. The tree is
// built once per process.
func NewECO() (*Tree, error) {
	ecoOnce.Do(func() {
		ecoTree, ecoErr = buildECO()
	})
	return ecoTree, ecoErr
}

func buildECO() (*Tree, error) {
	t := NewTree()
	for _, o := range opening.NewBookECO().Possible(nil) {
		moves := o.Game().Moves()
		line := make([]string, len(moves))
		for i, m := range moves {
			line[i] = m.String()
		}
		if err := t.Insert(line, Opening{Code: o.Code(), Name: o.Title()}); err != nil {
			return nil, fmt.Errorf("loading %s %s: %w", o.Code(), o.Title(), err)
		}
	}
	return t, nil
}

// NewTable returns a Book of explicit lines, keyed by space separated UCI
// moves and mapped to opening names.
func NewTable(lines map[string]string) (*Tree, error) {
	t := NewTree()
	for line, name := range lines {
		if err := t.Insert(strings.Fields(line), Opening{Name: name}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// ReadCSV reads a Book from CSV rows of "eco,name,uci moves". A header row
// whose first field is "eco" is skipped.
func ReadCSV(r io.Reader) (*Tree, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	t := NewTree()
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading opening book: %w", err)
		}
		if row == 1 && strings.EqualFold(rec[0], "eco") {
			continue
		}
		if err := t.Insert(strings.Fields(rec[2]), Opening{Code: rec[0], Name: rec[1]}); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
	}
}
