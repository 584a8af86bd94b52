package aggregate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Distribution describes a sample of per-game values.
type Distribution struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Describe computes descriptive statistics. A single value has zero spread.
func Describe(sample []float64) Distribution {
	if len(sample) == 0 {
		return Distribution{}
	}

	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	d := Distribution{
		N:      len(sample),
		Mean:   stat.Mean(sample, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
	if len(sample) > 1 {
		d.StdDev = stat.StdDev(sample, nil)
	}
	return d
}

// Comparison tests whether per-game aggression differs between two groups
// of games, e.g. wins and losses.
type Comparison struct {
	A Distribution `json:"a"`
	B Distribution `json:"b"`

	// U and P are the Mann-Whitney U statistic and its two-tailed p-value
	// under the normal approximation.
	U float64 `json:"u"`
	P float64 `json:"p"`

	// CohensD is the effect size (mean A - mean B) / pooled std dev.
	CohensD     float64 `json:"cohens_d"`
	Significant bool    `json:"significant"`
}

// Compare returns ok false when either group is empty.
func Compare(a, b []float64) (Comparison, bool) {
	if len(a) == 0 || len(b) == 0 {
		return Comparison{}, false
	}
	c := Comparison{A: Describe(a), B: Describe(b)}
	c.U, c.P = mannWhitney(a, b)
	c.Significant = c.P < 0.05
	c.CohensD = cohensD(a, b)
	return c, true
}

func mannWhitney(a, b []float64) (u, p float64) {
	type ranked struct {
		v     float64
		fromA bool
	}
	all := make([]ranked, 0, len(a)+len(b))
	for _, v := range a {
		all = append(all, ranked{v, true})
	}
	for _, v := range b {
		all = append(all, ranked{v, false})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].v < all[j].v })

	// Tied values share their average rank.
	var rankA float64
	for i := 0; i < len(all); {
		j := i
		for j < len(all) && all[j].v == all[i].v {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if all[k].fromA {
				rankA += avg
			}
		}
		i = j
	}

	n1, n2 := float64(len(a)), float64(len(b))
	u1 := rankA - n1*(n1+1)/2
	u = math.Min(u1, n1*n2-u1)

	mu := n1 * n2 / 2
	sigma := math.Sqrt(n1 * n2 * (n1 + n2 + 1) / 12)
	if sigma == 0 {
		return u, 1
	}
	z := (u - mu) / sigma
	return u, 2 * normalCDF(-math.Abs(z))
}

func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func cohensD(a, b []float64) float64 {
	n1, n2 := float64(len(a)), float64(len(b))
	if n1+n2 <= 2 {
		return 0
	}
	var va, vb float64
	if len(a) > 1 {
		va = stat.Variance(a, nil)
	}
	if len(b) > 1 {
		vb = stat.Variance(b, nil)
	}
	pooled := math.Sqrt(((n1-1)*va + (n2-1)*vb) / (n1 + n2 - 2))
	if pooled == 0 {
		return 0
	}
	return (stat.Mean(a, nil) - stat.Mean(b, nil)) / pooled
}
