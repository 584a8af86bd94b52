package analyzerfx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/discochess/gamelens"
	"github.com/discochess/gamelens/internal/codec/noopcodec"
	"github.com/discochess/gamelens/internal/codec/zstdcodec"
	"github.com/discochess/gamelens/internal/config"
	"github.com/discochess/gamelens/internal/engine/lookup"
	"github.com/discochess/gamelens/internal/shard/fnvshard"
	"github.com/discochess/gamelens/internal/stats"
	"github.com/discochess/gamelens/internal/store/diskstore"
)

const (
	startKey = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -"
	e4Key    = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq -"
)

// buildDB writes a two-position database into a temporary directory.
func buildDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	shards, err := diskstore.New(dir, zstdcodec.New())
	if err != nil {
		t.Fatal(err)
	}
	meta, err := diskstore.New(dir, noopcodec.New())
	if err != nil {
		t.Fatal(err)
	}
	src := `{"fen":"` + startKey + `","evals":[{"pvs":[{"cp":20,"line":"e2e4"}],"depth":30}]}` + "\n" +
		`{"fen":"` + e4Key + `","evals":[{"pvs":[{"cp":25,"line":"c7c5"}],"depth":30}]}` + "\n"
	b := lookup.NewBuilder(lookup.BuildWithTotalShards(4), lookup.BuildWithStrategy(fnvshard.New()))
	if _, err := b.Build(context.Background(), strings.NewReader(src), shards, meta); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return dir
}

func TestModule(t *testing.T) {
	var a *gamelens.Analyzer
	app := fxtest.New(t,
		fx.Supply(zap.NewNop()),
		fx.Supply(Config{Analysis: config.Default(), EvalDB: buildDB(t), CacheSize: 8}),
		Module,
		fx.Populate(&a),
	)
	app.RequireStart()

	pgn := "[White \"alice\"]\n[Black \"bob\"]\n[Result \"*\"]\n\n1. e4 *\n"
	report, err := a.AnalyzePGN(context.Background(), strings.NewReader(pgn), "")
	if err != nil {
		t.Fatalf("AnalyzePGN() error = %v", err)
	}
	if len(report.Games) != 1 {
		t.Fatalf("games = %d, want 1", len(report.Games))
	}
	g := report.Games[0]
	if g.Incomplete {
		t.Errorf("game incomplete: %v", g.Errors)
	}
	if g.Opening.Name == "" {
		t.Error("built-in book did not name 1.e4")
	}

	app.RequireStop()
	if _, err := a.AnalyzePGN(context.Background(), strings.NewReader(pgn), ""); !errors.Is(err, gamelens.ErrClosed) {
		t.Errorf("AnalyzePGN() after stop error = %v, want ErrClosed", err)
	}
}

func TestNewEvaluator_NoSource(t *testing.T) {
	_, err := NewEvaluator(context.Background(), Config{Analysis: config.Default()}, stats.NewNoop(), zap.NewNop())
	if !errors.Is(err, gamelens.ErrNoEvaluator) {
		t.Errorf("error = %v, want ErrNoEvaluator", err)
	}
}

func TestNewEvaluator_MissingEngine(t *testing.T) {
	cfg := Config{Analysis: config.Default(), UseEngine: true}
	cfg.Analysis.Engine.Path = filepath.Join(t.TempDir(), "no-such-engine")
	if _, err := NewEvaluator(context.Background(), cfg, stats.NewNoop(), zap.NewNop()); err == nil {
		t.Error("NewEvaluator() with a missing engine should fail")
	}
}

func TestLoadBook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.csv")
	if err := os.WriteFile(path, []byte("eco,name,uci\nC20,King's Pawn,e2e4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	book, err := LoadBook(path)
	if err != nil {
		t.Fatalf("LoadBook() error = %v", err)
	}
	if book == nil {
		t.Fatal("LoadBook() = nil")
	}
	if _, err := LoadBook(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("LoadBook(missing) should fail")
	}
}
