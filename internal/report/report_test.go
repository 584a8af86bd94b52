package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/notnil/chess"

	"github.com/discochess/gamelens/internal/aggregate"
	"github.com/discochess/gamelens/internal/classify"
	"github.com/discochess/gamelens/internal/config"
	"github.com/discochess/gamelens/internal/pgnio"
	"github.com/discochess/gamelens/internal/phase"
	"github.com/discochess/gamelens/internal/store/memstore"
	"github.com/discochess/gamelens/internal/theory"
)

func intPtr(n int) *int { return &n }

func fixture(t *testing.T) *aggregate.GameSummary {
	t.Helper()
	h := pgnio.Header{White: "alice", Black: "bob", Result: pgnio.WhiteWins, Date: "2024.01.02"}
	b := aggregate.NewBuilder(config.Default(), "game-1", h, chess.White)
	b.SetOpening(theory.Opening{Code: "B20", Name: "Sicilian Defense"}, 3)
	moves := []aggregate.MoveRecord{
		{Ply: 1, Color: "white", Phase: phase.Opening, Quality: classify.Book, Eval: intPtr(30)},
		{Ply: 2, Color: "black", Phase: phase.Opening, Quality: classify.Book, Eval: intPtr(30)},
		{Ply: 3, Color: "white", Phase: phase.Middlegame, Quality: classify.Great, Aggression: 2, Eval: intPtr(250)},
		{Ply: 4, Color: "black", Phase: phase.Middlegame, Quality: classify.Blunder, Aggression: 1, Eval: intPtr(700)},
		{Ply: 5, Color: "white", Phase: phase.Middlegame, Quality: classify.Unevaluated, Err: "engine: timeout"},
	}
	for _, m := range moves {
		if err := b.Add(m); err != nil {
			t.Fatalf("Add(%d) error = %v", m.Ply, err)
		}
	}
	g, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	return g
}

func TestWriteJSON(t *testing.T) {
	g := fixture(t)
	var buf bytes.Buffer
	if err := WriteJSON(&buf, g); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"id\": \"game-1\"") {
		t.Errorf("output is not indented:\n%s", buf.String())
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["incomplete"] != true {
		t.Errorf("incomplete = %v, want true", decoded["incomplete"])
	}
}

func TestMarkdown_Game(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdown(&buf).WriteGame(fixture(t)); err != nil {
		t.Fatalf("WriteGame() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"## alice vs bob (1-0) 2024.01.02",
		"**Opening:** B20 Sicilian Defense",
		"**Left theory:** ply 3",
		"**Incomplete evaluation:** 1 error(s)",
		"| Side | Phase | blunder | mistake | inaccuracy | good move | great move | book move | Avg quality | Avg aggression | Outcome |",
		"| white | middlegame | 0 | 0 | 0 | 0 | 1 | 0 | +1.00 | 2.00 | win |",
		"| black | opening | 0 | 0 | 0 | 0 | 0 | 1 | +0.00 | 0.00 | loss |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "endgame") {
		t.Errorf("markdown lists an empty phase:\n%s", out)
	}
}

func TestMarkdown_Player(t *testing.T) {
	g := fixture(t)
	p := aggregate.Summarize("alice", []*aggregate.GameSummary{g})

	var buf bytes.Buffer
	if err := NewMarkdown(&buf).WritePlayer(p); err != nil {
		t.Fatalf("WritePlayer() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# alice",
		"**Games:** 1 (1 W / 0 L / 0 D)",
		"100.0% overall, 100.0% as white, - as black",
		"| endgame | 0 | 0 | 0 | 0 | 0 | 0 | no data | no data | - |",
		"| great_move | 1 | 100.0% |",
		"| blunder | 0 | - |",
		"| B20 Sicilian Defense | 1 | 1 | 0 | 0 |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n%s", want, out)
		}
	}
}

func TestText(t *testing.T) {
	g := fixture(t)
	var buf bytes.Buffer
	txt := NewText(&buf)
	if err := txt.WriteGame(g); err != nil {
		t.Fatalf("WriteGame() error = %v", err)
	}
	if err := txt.WritePlayer(aggregate.Summarize("alice", []*aggregate.GameSummary{g})); err != nil {
		t.Fatalf("WritePlayer() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{"alice vs bob", "Sicilian Defense", "middlegame", "great move", "+1.00", "no data", "Win rate"} {
		if !strings.Contains(out, want) {
			t.Errorf("text missing %q\n%s", want, out)
		}
	}
}

// failAfter accepts n writes and then fails.
type failAfter struct {
	n      int
	writes int
}

var errDiskFull = errors.New("disk full")

func (f *failAfter) Write(p []byte) (int, error) {
	f.writes++
	if f.writes > f.n {
		return 0, errDiskFull
	}
	return len(p), nil
}

func TestWriters_PropagateWriteError(t *testing.T) {
	g := fixture(t)
	p := aggregate.Summarize("alice", []*aggregate.GameSummary{g})

	tests := []struct {
		name  string
		write func(w *failAfter) error
	}{
		{"markdown game", func(w *failAfter) error { return NewMarkdown(w).WriteGame(g) }},
		{"markdown player", func(w *failAfter) error { return NewMarkdown(w).WritePlayer(p) }},
		{"text game", func(w *failAfter) error { return NewText(w).WriteGame(g) }},
		{"text player", func(w *failAfter) error { return NewText(w).WritePlayer(p) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &failAfter{n: 1}
			err := tt.write(w)
			if !errors.Is(err, errDiskFull) {
				t.Fatalf("error = %v, want %v", err, errDiskFull)
			}
			if w.writes != 2 {
				t.Errorf("writes = %d, want 2 (no writes after the first failure)", w.writes)
			}
		})
	}
}

func TestPublisher(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	pub := NewPublisher(st, nil)
	g := fixture(t)

	key, err := pub.PublishGame(ctx, g)
	if err != nil {
		t.Fatalf("PublishGame() error = %v", err)
	}
	if key != "reports/games/game-1.json" {
		t.Errorf("key = %q", key)
	}
	data, err := st.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get(%q) error = %v", key, err)
	}
	var back map[string]any
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("stored report is not JSON: %v", err)
	}
	if back["id"] != g.ID {
		t.Errorf("stored id = %v, want %q", back["id"], g.ID)
	}

	pkey, err := pub.PublishPlayer(ctx, aggregate.Summarize("a/b", []*aggregate.GameSummary{g}))
	if err != nil {
		t.Fatalf("PublishPlayer() error = %v", err)
	}
	if pkey != "reports/players/a%2Fb.json" {
		t.Errorf("player key = %q", pkey)
	}
}

func TestPublisher_NoID(t *testing.T) {
	pub := NewPublisher(memstore.New(), nil)
	_, err := pub.PublishGame(context.Background(), &aggregate.GameSummary{})
	if !errors.Is(err, ErrNoID) {
		t.Errorf("error = %v, want ErrNoID", err)
	}
}
