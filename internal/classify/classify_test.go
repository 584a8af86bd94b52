package classify

import (
	"testing"

	"github.com/discochess/gamelens/internal/config"
)

func TestClassify(t *testing.T) {
	th := config.Default().Thresholds

	tests := []struct {
		delta int
		book  bool
		want  Quality
	}{
		{-350, false, Blunder},
		{-300, false, Blunder},
		{-299, false, Mistake},
		{-100, false, Mistake},
		{-99, false, Inaccuracy},
		{-50, false, Inaccuracy},
		{-49, false, Neutral},
		{0, false, Neutral},
		{49, false, Neutral},
		{50, false, Good},
		{99, false, Good},
		{100, false, Great},
		{120, false, Great},
		{-350, true, Book},
		{120, true, Book},
		{0, true, Book},
	}

	for _, tt := range tests {
		got := Classify(tt.delta, tt.book, th)
		if got != tt.want {
			t.Errorf("Classify(%d, %v) = %v, want %v", tt.delta, tt.book, got, tt.want)
		}
	}
}

func TestClassify_Weights(t *testing.T) {
	th := config.Default().Thresholds

	if q := Classify(-350, false, th); q.Weight() != -3.0 {
		t.Errorf("Classify(-350).Weight() = %v, want -3.0", q.Weight())
	}
	if q := Classify(120, false, th); q.Weight() != 1.0 {
		t.Errorf("Classify(120).Weight() = %v, want 1.0", q.Weight())
	}
}

func TestClassify_CustomThresholds(t *testing.T) {
	th := config.Thresholds{Blunder: -500, Mistake: -200, Inaccuracy: -80, Good: 80, Great: 200}

	if got := Classify(-350, false, th); got != Mistake {
		t.Errorf("Classify(-350) = %v, want %v", got, Mistake)
	}
	if got := Classify(120, false, th); got != Good {
		t.Errorf("Classify(120) = %v, want %v", got, Good)
	}
}

func TestClassify_TotalAndPure(t *testing.T) {
	th := config.Default().Thresholds

	for delta := -2000; delta <= 2000; delta++ {
		first := Classify(delta, false, th)
		if first == Unevaluated {
			t.Fatalf("Classify(%d) = Unevaluated", delta)
		}
		if again := Classify(delta, false, th); again != first {
			t.Fatalf("Classify(%d) not deterministic: %v then %v", delta, first, again)
		}
	}
}

func TestQuality_Weight(t *testing.T) {
	tests := []struct {
		q    Quality
		want float64
	}{
		{Blunder, -3.0},
		{Mistake, -1.0},
		{Inaccuracy, -0.5},
		{Good, 0.5},
		{Great, 1.0},
		{Book, 0.0},
		{Neutral, 0.0},
		{Unevaluated, 0.0},
	}
	for _, tt := range tests {
		if got := tt.q.Weight(); got != tt.want {
			t.Errorf("%v.Weight() = %v, want %v", tt.q, got, tt.want)
		}
	}
}

func TestQuality_IsCounted(t *testing.T) {
	for _, q := range Counted {
		if !q.IsCounted() {
			t.Errorf("%v.IsCounted() = false", q)
		}
	}
	if Neutral.IsCounted() || Unevaluated.IsCounted() {
		t.Error("Neutral and Unevaluated must not be counted")
	}
}

func TestParse(t *testing.T) {
	for q := Unevaluated; q <= Book; q++ {
		got, err := Parse(q.String())
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", q.String(), err)
		}
		if got != q {
			t.Errorf("Parse(%q) = %v, want %v", q.String(), got, q)
		}
	}
	if _, err := Parse("brilliant"); err == nil {
		t.Error("Parse(brilliant) expected error")
	}
}
