package theory

import (
	"errors"
	"strings"
	"testing"

	"github.com/notnil/chess"
)

func movesOf(t *testing.T, uci ...string) []*chess.Move {
	t.Helper()
	g := chess.NewGame(chess.UseNotation(chess.UCINotation{}))
	for _, m := range uci {
		if err := g.MoveStr(m); err != nil {
			t.Fatalf("MoveStr(%q) error = %v", m, err)
		}
	}
	return g.Moves()
}

func TestTable_Lookup(t *testing.T) {
	book, err := NewTable(map[string]string{
		"e2e4 e7e5":           "King's Pawn Game",
		"e2e4 e7e5 g1f3 b8c6": "King's Knight Opening",
		"d2d4":                "Queen's Pawn Game",
	})
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	tests := []struct {
		name   string
		moves  []string
		inBook bool
		want   string
	}{
		{"empty", nil, true, ""},
		{"unnamed prefix", []string{"e2e4"}, true, ""},
		{"named", []string{"e2e4", "e7e5"}, true, "King's Pawn Game"},
		{"between names", []string{"e2e4", "e7e5", "g1f3"}, true, "King's Pawn Game"},
		{"deepest", []string{"e2e4", "e7e5", "g1f3", "b8c6"}, true, "King's Knight Opening"},
		{"past the line", []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5"}, false, "King's Knight Opening"},
		{"deviation", []string{"e2e4", "c7c5"}, false, ""},
		{"other root", []string{"d2d4"}, true, "Queen's Pawn Game"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, ok := book.Lookup(movesOf(t, tt.moves...))
			if ok != tt.inBook {
				t.Errorf("Lookup() inBook = %v, want %v", ok, tt.inBook)
			}
			if o.Name != tt.want {
				t.Errorf("Lookup() name = %q, want %q", o.Name, tt.want)
			}
		})
	}
}

func TestTable_BadLine(t *testing.T) {
	_, err := NewTable(map[string]string{"e4 e5": "bad"})
	if !errors.Is(err, ErrBadLine) {
		t.Errorf("NewTable() error = %v, want ErrBadLine", err)
	}
}

func TestReadCSV(t *testing.T) {
	const data = `eco,name,uci
C20,King's Pawn Game,e2e4 e7e5
B20,Sicilian Defense,e2e4 c7c5
`
	book, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	o, ok := book.Lookup(movesOf(t, "e2e4", "c7c5"))
	if !ok || o.Code != "B20" || o.Name != "Sicilian Defense" {
		t.Errorf("Lookup() = %+v, %v", o, ok)
	}

	if _, err := ReadCSV(strings.NewReader("A00,short\n")); err == nil {
		t.Error("ReadCSV() with missing column, want error")
	}
	if _, err := ReadCSV(strings.NewReader("A00,bad,zz\n")); !errors.Is(err, ErrBadLine) {
		t.Errorf("ReadCSV() error = %v, want ErrBadLine", err)
	}
}

func TestECO(t *testing.T) {
	book, err := NewECO()
	if err != nil {
		t.Fatalf("NewECO() error = %v", err)
	}

	o, ok := book.Lookup(movesOf(t, "e2e4", "c7c5"))
	if !ok {
		t.Fatal("1. e4 c5 should be in book")
	}
	if !strings.HasPrefix(o.Code, "B") || !strings.Contains(o.Name, "Sicilian") {
		t.Errorf("Lookup(1. e4 c5) = %+v, want a Sicilian", o)
	}

	// 1. h4 h5 2. Rh3 Rh6 3. Ra3 is nobody's theory.
	if _, ok := book.Lookup(movesOf(t, "h2h4", "h7h5", "h1h3", "h8h6", "h3a3", "h6a6")); ok {
		t.Error("rook shuffle should be out of book")
	}

	again, _ := NewECO()
	if again != book {
		t.Error("NewECO() should return the shared tree")
	}
}
