// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the module.
const (
	// Pipeline metrics.
	MetricGamesAnalyzed    = "gamelens_games_analyzed_total"
	MetricGamesSkipped     = "gamelens_games_skipped_total"
	MetricGamesIncomplete  = "gamelens_games_incomplete_total"
	MetricPliesClassified  = "gamelens_plies_classified_total"
	MetricPliesUnevaluated = "gamelens_plies_unevaluated_total"

	// Engine metrics.
	MetricEngineCalls   = "gamelens_engine_calls_total"
	MetricEngineErrors  = "gamelens_engine_errors_total"
	MetricEngineLatency = "gamelens_engine_latency_seconds"

	// Evaluation database metrics.
	MetricLookups      = "gamelens_evaldb_lookups_total"
	MetricLookupHits   = "gamelens_evaldb_hits_total"
	MetricLookupMisses = "gamelens_evaldb_misses_total"

	// Cache metrics.
	MetricCacheHits   = "gamelens_cache_hits_total"
	MetricCacheMisses = "gamelens_cache_misses_total"
	MetricCacheSize   = "gamelens_cache_size"
)

var help = map[string]string{
	MetricGamesAnalyzed:    "Games that produced a summary.",
	MetricGamesSkipped:     "Games skipped because their record could not be parsed.",
	MetricGamesIncomplete:  "Games with at least one unevaluated ply.",
	MetricPliesClassified:  "Plies assigned a move quality.",
	MetricPliesUnevaluated: "Plies left unevaluated after an engine failure.",
	MetricEngineCalls:      "Position evaluations requested.",
	MetricEngineErrors:     "Position evaluations that failed.",
	MetricEngineLatency:    "Time spent per position evaluation.",
	MetricLookups:          "Evaluation database lookups.",
	MetricLookupHits:       "Evaluation database lookups that found the position.",
	MetricLookupMisses:     "Evaluation database lookups that missed.",
	MetricCacheHits:        "Shard cache hits.",
	MetricCacheMisses:      "Shard cache misses.",
	MetricCacheSize:        "Entries held in the shard cache.",
}

// Help returns the description of a known metric, or the name itself.
func Help(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
