package phase

import (
	"strings"
	"testing"

	"github.com/notnil/chess"

	"github.com/discochess/gamelens/internal/config"
	"github.com/discochess/gamelens/internal/replay"
)

// Kasparov vs Topalov, Wijk aan Zee 1999.
const kasparovTopalov = `[White "Kasparov, Garry"]
[Black "Topalov, Veselin"]
[Result "1-0"]

1. e4 d6 2. d4 Nf6 3. Nc3 g6 4. Be3 Bg7 5. Qd2 c6 6. f3 b5 7. Nge2 Nbd7
8. Bh6 Bxh6 9. Qxh6 Bb7 10. a3 e5 11. O-O-O Qe7 12. Kb1 a6 13. Nc1 O-O-O
14. Nb3 exd4 15. Rxd4 c5 16. Rd1 Nb6 17. g3 Kb8 18. Na5 Ba8 19. Bh3 d5
20. Qf4+ Ka7 21. Rhe1 d4 22. Nd5 Nbxd5 23. exd5 Qd6 24. Rxd4 cxd4 25. Re7+ Kb6
26. Qxd4+ Kxa5 27. b4+ Ka4 28. Qc3 Qxd5 29. Ra7 Bb7 30. Rxb7 Qc4 31. Qxf6 Kxa3
32. Qxa6+ Kxb4 33. c3+ Kxc3 34. Qa1+ Kd2 35. Qb2+ Kd1 36. Bf1 Rd2 37. Rd7 Rxd7
38. Bxc4 bxc4 39. Qxh8 Rd3 40. Qa8 c3 41. Qa4+ Ke1 42. f4 f5 43. Kc1 Rd2
44. Qa7 1-0`

func replayPGN(t *testing.T, pgn string) *replay.Game {
	t.Helper()
	opt, err := chess.PGN(strings.NewReader(pgn))
	if err != nil {
		t.Fatalf("chess.PGN() error = %v", err)
	}
	rg, err := replay.Replay(chess.NewGame(opt))
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	return rg
}

func replayUCI(t *testing.T, fenStr string, moves ...string) *replay.Game {
	t.Helper()
	opt, err := chess.FEN(fenStr)
	if err != nil {
		t.Fatalf("chess.FEN() error = %v", err)
	}
	g := chess.NewGame(opt, chess.UseNotation(chess.UCINotation{}))
	for _, m := range moves {
		if err := g.MoveStr(m); err != nil {
			t.Fatalf("MoveStr(%q) error = %v", m, err)
		}
	}
	rg, err := replay.Replay(g)
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	return rg
}

func assertMonotonic(t *testing.T, phases []Phase) {
	t.Helper()
	for i := 1; i < len(phases); i++ {
		if phases[i] < phases[i-1] {
			t.Fatalf("phase went back at ply %d: %v -> %v", i+1, phases[i-1], phases[i])
		}
	}
}

func TestSegment_FullGame(t *testing.T) {
	rg := replayPGN(t, kasparovTopalov)
	phases := NewSegmenter(config.Default().Phases).Segment(rg.Plies)

	if len(phases) != len(rg.Plies) {
		t.Fatalf("len(phases) = %d, want %d", len(phases), len(rg.Plies))
	}
	assertMonotonic(t, phases)

	if phases[0] != Opening {
		t.Errorf("first ply phase = %v, want opening", phases[0])
	}
	if last := phases[len(phases)-1]; last != Endgame {
		t.Errorf("last ply phase = %v, want endgame", last)
	}

	seen := make(map[Phase]bool)
	for _, p := range phases {
		seen[p] = true
	}
	for _, p := range All {
		if !seen[p] {
			t.Errorf("phase %v never assigned", p)
		}
	}
}

func TestSegment_OpeningPlyLimit(t *testing.T) {
	rg := replayPGN(t, kasparovTopalov)
	cfg := config.Phases{OpeningPlies: 4, DevelopedPieces: 100, EndgameMaterial: 1}
	phases := NewSegmenter(cfg).Segment(rg.Plies)

	for i := 0; i < 4; i++ {
		if phases[i] != Opening {
			t.Errorf("ply %d phase = %v, want opening", i+1, phases[i])
		}
	}
	if phases[4] != Middlegame {
		t.Errorf("ply 5 phase = %v, want middlegame", phases[4])
	}
}

func TestSegment_DevelopedPieces(t *testing.T) {
	// 1. Nf3 Nf6 2. Nc3: the third piece leaves home on ply 3.
	rg := replayPGN(t, "[Result \"*\"]\n\n1. Nf3 Nf6 2. Nc3 Nc6 *")
	cfg := config.Phases{OpeningPlies: 30, DevelopedPieces: 3, EndgameMaterial: 1}
	phases := NewSegmenter(cfg).Segment(rg.Plies)

	want := []Phase{Opening, Opening, Middlegame, Middlegame}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("ply %d phase = %v, want %v", i+1, phases[i], want[i])
		}
	}
}

func TestSegment_CastlingDevelopsRook(t *testing.T) {
	rg := replayUCI(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1")
	// The empty g1 square and the h1 rook.
	cfg := config.Phases{OpeningPlies: 30, DevelopedPieces: 2, EndgameMaterial: 1}
	phases := NewSegmenter(cfg).Segment(rg.Plies)

	if phases[0] != Middlegame {
		t.Errorf("phase after castling = %v, want middlegame", phases[0])
	}
}

func TestSegment_EndgameFromStart(t *testing.T) {
	rg := replayUCI(t, "4k3/8/8/8/8/8/8/R3K3 w - - 0 1", "a1a7", "e8d8")
	phases := NewSegmenter(config.Default().Phases).Segment(rg.Plies)

	for i, p := range phases {
		if p != Endgame {
			t.Errorf("ply %d phase = %v, want endgame", i+1, p)
		}
	}
}

func TestSegment_NeverLeavesEndgame(t *testing.T) {
	// Promotion raises non-pawn material above the threshold again.
	rg := replayUCI(t, "7k/P7/8/8/8/8/8/K7 w - - 0 1", "a7a8q")
	cfg := config.Phases{OpeningPlies: 0, DevelopedPieces: 100, EndgameMaterial: 5}
	phases := NewSegmenter(cfg).Segment(rg.Plies)

	if phases[0] != Middlegame {
		t.Fatalf("phase after promotion = %v, want middlegame (judged on material 9)", phases[0])
	}

	rg = replayUCI(t, "7k/P7/8/8/8/8/8/K7 w - - 0 1", "a1b1", "h8g8", "a7a8q")
	phases = NewSegmenter(cfg).Segment(rg.Plies)
	if phases[0] != Endgame {
		t.Fatalf("ply 1 phase = %v, want endgame", phases[0])
	}
	if phases[2] != Endgame {
		t.Errorf("phase after promotion = %v, want endgame", phases[2])
	}
	assertMonotonic(t, phases)
}

func TestPhase_String(t *testing.T) {
	want := map[Phase]string{Opening: "opening", Middlegame: "middlegame", Endgame: "endgame"}
	for p, s := range want {
		if p.String() != s {
			t.Errorf("%d.String() = %q, want %q", int(p), p.String(), s)
		}
	}
}
