package pgnio

import (
	"errors"
	"strings"
	"testing"

	"github.com/notnil/chess"
)

const twoGames = `[Event "Casual"]
[White "alice"]
[Black "Bob"]
[Result "1-0"]
[WhiteElo "1500"]
[BlackElo "?"]

1. e4 e5 2. Qh5 Nc6 3. Bc4 Nf6 4. Qxf7# 1-0

[Event "Casual"]
[White "Bob"]
[Black "Alice"]
[Result "1/2-1/2"]

1. d4 d5 2. c4 e6 1/2-1/2
`

func TestRead_SplitsGames(t *testing.T) {
	recs, err := ReadAll(strings.NewReader(twoGames))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(recs))
	}

	first := recs[0]
	if first.Err != nil {
		t.Fatalf("game 0 error = %v", first.Err)
	}
	if n := len(first.Game.Moves()); n != 7 {
		t.Errorf("game 0 moves = %d, want 7", n)
	}
	want := Header{Event: "Casual", White: "alice", Black: "Bob", Result: WhiteWins, WhiteElo: 1500}
	if first.Header != want {
		t.Errorf("game 0 header = %+v, want %+v", first.Header, want)
	}

	second := recs[1]
	if second.Err != nil || second.Index != 1 {
		t.Fatalf("game 1 = %+v", second)
	}
	if n := len(second.Game.Moves()); n != 4 {
		t.Errorf("game 1 moves = %d, want 4", n)
	}
}

func TestRead_ParseErrorsContinue(t *testing.T) {
	input := `[White "a"]
[Black "b"]

1. e4 e5 1-0

[White "a"]
[Black "b"]
[Result "*"]

1. e4 Ke7 Ke6 *

[White "a"]
[Black "b"]
[Result "0-1"]

1. f3 e5 2. g4 Qh4# 0-1
`
	recs, err := ReadAll(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(recs))
	}

	if recs[0].Err == nil || !errors.Is(recs[0].Err, ErrMissingTag) {
		t.Errorf("game 0 error = %v, want ErrMissingTag", recs[0].Err)
	}
	if recs[1].Err == nil {
		t.Error("game 1 with an illegal move should fail")
	}
	var pe *ParseError
	if recs[1].Err != nil && (!errors.As(error(recs[1].Err), &pe) || pe.Index != 1) {
		t.Errorf("game 1 error = %#v, want *ParseError with index 1", recs[1].Err)
	}
	if recs[2].Err != nil {
		t.Fatalf("game 2 error = %v", recs[2].Err)
	}
	if recs[2].Header.Winner() != chess.Black {
		t.Errorf("game 2 winner = %v, want black", recs[2].Header.Winner())
	}
}

func TestRead_StopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := Read(strings.NewReader(twoGames), func(Record) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("Read() error = %v, want stop", err)
	}
	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}
}

func TestRead_Empty(t *testing.T) {
	recs, err := ReadAll(strings.NewReader("\n\n"))
	if err != nil || len(recs) != 0 {
		t.Errorf("ReadAll(empty) = %v, %v", recs, err)
	}
}

func TestDecode_BadResult(t *testing.T) {
	_, _, err := Decode("[White \"a\"]\n[Black \"b\"]\n[Result \"2-0\"]\n\n1. e4 *\n")
	if !errors.Is(err, ErrBadResult) {
		t.Errorf("Decode() error = %v, want ErrBadResult", err)
	}
}

func TestHeader_PlaysAs(t *testing.T) {
	h := Header{White: "Alice", Black: "bob"}
	tests := []struct {
		user  string
		color chess.Color
		ok    bool
	}{
		{"alice", chess.White, true},
		{"BOB", chess.Black, true},
		{"carol", chess.NoColor, false},
		{"", chess.NoColor, false},
	}
	for _, tt := range tests {
		c, ok := h.PlaysAs(tt.user)
		if c != tt.color || ok != tt.ok {
			t.Errorf("PlaysAs(%q) = %v, %v, want %v, %v", tt.user, c, ok, tt.color, tt.ok)
		}
	}
}

func TestHeader_Accessors(t *testing.T) {
	h := Header{White: "a", Black: "b", WhiteElo: 1400, BlackElo: 1600, Result: Draw}
	if h.Elo(chess.Black) != 1600 || h.Elo(chess.White) != 1400 {
		t.Errorf("Elo() = %d, %d", h.Elo(chess.White), h.Elo(chess.Black))
	}
	if h.Player(chess.Black) != "b" {
		t.Errorf("Player(black) = %q", h.Player(chess.Black))
	}
	if h.Winner() != chess.NoColor || !h.IsDecided() {
		t.Errorf("draw: Winner() = %v, IsDecided() = %v", h.Winner(), h.IsDecided())
	}
	if (Header{Result: Unfinished}).IsDecided() {
		t.Error("unfinished game should not be decided")
	}
}
