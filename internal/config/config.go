// Package config holds the analysis configuration: classification
// thresholds, phase boundaries, sacrifice detection and engine limits.
//
// A Config is a plain value. It is validated once and then passed down the
// pipeline unchanged, so concurrent games never share mutable settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. GAMELENS_THRESHOLDS_BLUNDER=-250.
const EnvPrefix = "GAMELENS"

// Recapture scoring policies.
const (
	// RecaptureAdd scores a recapture as CAPTURE plus RECAPTURE.
	RecaptureAdd = "add"
	// RecaptureSupersede scores a recapture as RECAPTURE only.
	RecaptureSupersede = "supersede"
)

// ErrInvalid is wrapped by every *Error.
var ErrInvalid = errors.New("config: invalid configuration")

// Error is a configuration error. It is fatal at startup.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalid.
func (e *Error) Unwrap() error {
	return ErrInvalid
}

// Thresholds are the centipawn cut points for move classification,
// measured as the evaluation change from the mover's point of view.
type Thresholds struct {
	Blunder    int `mapstructure:"blunder" json:"blunder"`
	Mistake    int `mapstructure:"mistake" json:"mistake"`
	Inaccuracy int `mapstructure:"inaccuracy" json:"inaccuracy"`
	Good       int `mapstructure:"good" json:"good"`
	Great      int `mapstructure:"great" json:"great"`
}

// Phases configures the phase segmenter.
type Phases struct {
	// OpeningPlies is the last ply that can belong to the opening.
	OpeningPlies int `mapstructure:"opening_plies" json:"opening_plies"`

	// DevelopedPieces ends the opening once this many minor and major
	// pieces (both sides) have left their starting squares.
	DevelopedPieces int `mapstructure:"developed_pieces" json:"developed_pieces"`

	// EndgameMaterial starts the endgame once the non-pawn material of
	// both sides together, in pawn units, drops below this value.
	EndgameMaterial int `mapstructure:"endgame_material" json:"endgame_material"`
}

// Sacrifice configures the sacrifice heuristic.
type Sacrifice struct {
	// MaterialDrop is the minimum loss of material balance, in pawn units.
	MaterialDrop int `mapstructure:"material_drop" json:"material_drop"`

	// Lookahead is the number of plies after the move that are inspected.
	Lookahead int `mapstructure:"lookahead" json:"lookahead"`

	// MaxEvalLoss is the evaluation change, in centipawns, below which a
	// material loss is a blunder rather than a sacrifice.
	MaxEvalLoss int `mapstructure:"max_eval_loss" json:"max_eval_loss"`
}

// Engine configures the UCI engine adapter.
type Engine struct {
	Path     string        `mapstructure:"path" json:"path"`
	Timeout  time.Duration `mapstructure:"timeout" json:"timeout"`
	Depth    int           `mapstructure:"depth" json:"depth"`
	MoveTime time.Duration `mapstructure:"move_time" json:"move_time"`
}

// Config is the full analysis configuration.
type Config struct {
	Thresholds Thresholds `mapstructure:"thresholds" json:"thresholds"`

	// BookDepth is the deepest ply that can still be a book move.
	BookDepth int `mapstructure:"book_depth" json:"book_depth"`

	Phases    Phases    `mapstructure:"phases" json:"phases"`
	Sacrifice Sacrifice `mapstructure:"sacrifice" json:"sacrifice"`

	// RecapturePolicy is RecaptureAdd or RecaptureSupersede.
	RecapturePolicy string `mapstructure:"recapture_policy" json:"recapture_policy"`

	// DrawMargin is the centipawn band around zero that counts as an
	// even position when deciding who won a phase.
	DrawMargin int `mapstructure:"draw_margin" json:"draw_margin"`

	Engine Engine `mapstructure:"engine" json:"engine"`

	// Workers is the number of games analyzed in parallel.
	Workers int `mapstructure:"workers" json:"workers"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Thresholds: Thresholds{
			Blunder:    -300,
			Mistake:    -100,
			Inaccuracy: -50,
			Good:       50,
			Great:      100,
		},
		BookDepth: 24,
		Phases: Phases{
			OpeningPlies:    30,
			DevelopedPieces: 10,
			EndgameMaterial: 26,
		},
		Sacrifice: Sacrifice{
			MaterialDrop: 2,
			Lookahead:    2,
			MaxEvalLoss:  -100,
		},
		RecapturePolicy: RecaptureAdd,
		DrawMargin:      10,
		Engine: Engine{
			Path:     "stockfish",
			Timeout:  5 * time.Second,
			Depth:    15,
			MoveTime: 200 * time.Millisecond,
		},
		Workers: 1,
	}
}

// Validate checks the configuration and returns a *Error for the first
// violated constraint.
func (c Config) Validate() error {
	t := c.Thresholds
	switch {
	case t.Blunder > t.Mistake:
		return &Error{Field: "thresholds.blunder", Reason: "must not be above thresholds.mistake"}
	case t.Mistake > t.Inaccuracy:
		return &Error{Field: "thresholds.mistake", Reason: "must not be above thresholds.inaccuracy"}
	case t.Inaccuracy >= 0:
		return &Error{Field: "thresholds.inaccuracy", Reason: "must be negative"}
	case t.Good <= 0:
		return &Error{Field: "thresholds.good", Reason: "must be positive"}
	case t.Good > t.Great:
		return &Error{Field: "thresholds.good", Reason: "must not be above thresholds.great"}
	}

	if c.BookDepth < 0 {
		return &Error{Field: "book_depth", Reason: "must not be negative"}
	}
	if c.Phases.OpeningPlies < 0 {
		return &Error{Field: "phases.opening_plies", Reason: "must not be negative"}
	}
	if c.Phases.DevelopedPieces <= 0 {
		return &Error{Field: "phases.developed_pieces", Reason: "must be positive"}
	}
	if c.Phases.EndgameMaterial <= 0 {
		return &Error{Field: "phases.endgame_material", Reason: "must be positive"}
	}
	if c.Sacrifice.MaterialDrop <= 0 {
		return &Error{Field: "sacrifice.material_drop", Reason: "must be positive"}
	}
	if c.Sacrifice.Lookahead <= 0 {
		return &Error{Field: "sacrifice.lookahead", Reason: "must be positive"}
	}
	if c.RecapturePolicy != RecaptureAdd && c.RecapturePolicy != RecaptureSupersede {
		return &Error{Field: "recapture_policy", Reason: fmt.Sprintf("unknown policy %q", c.RecapturePolicy)}
	}
	if c.DrawMargin < 0 {
		return &Error{Field: "draw_margin", Reason: "must not be negative"}
	}
	if c.Engine.Timeout <= 0 {
		return &Error{Field: "engine.timeout", Reason: "must be positive"}
	}
	if c.Engine.Depth <= 0 && c.Engine.MoveTime <= 0 {
		return &Error{Field: "engine", Reason: "one of depth or move_time must be set"}
	}
	if c.Workers <= 0 {
		return &Error{Field: "workers", Reason: "must be positive"}
	}
	return nil
}

// Load reads a configuration file on top of the defaults and applies
// GAMELENS_* environment overrides. An empty path reads only the
// environment. The result is validated.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can override keys
// that are absent from the file.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("thresholds.blunder", d.Thresholds.Blunder)
	v.SetDefault("thresholds.mistake", d.Thresholds.Mistake)
	v.SetDefault("thresholds.inaccuracy", d.Thresholds.Inaccuracy)
	v.SetDefault("thresholds.good", d.Thresholds.Good)
	v.SetDefault("thresholds.great", d.Thresholds.Great)
	v.SetDefault("book_depth", d.BookDepth)
	v.SetDefault("phases.opening_plies", d.Phases.OpeningPlies)
	v.SetDefault("phases.developed_pieces", d.Phases.DevelopedPieces)
	v.SetDefault("phases.endgame_material", d.Phases.EndgameMaterial)
	v.SetDefault("sacrifice.material_drop", d.Sacrifice.MaterialDrop)
	v.SetDefault("sacrifice.lookahead", d.Sacrifice.Lookahead)
	v.SetDefault("sacrifice.max_eval_loss", d.Sacrifice.MaxEvalLoss)
	v.SetDefault("recapture_policy", d.RecapturePolicy)
	v.SetDefault("draw_margin", d.DrawMargin)
	v.SetDefault("engine.path", d.Engine.Path)
	v.SetDefault("engine.timeout", d.Engine.Timeout)
	v.SetDefault("engine.depth", d.Engine.Depth)
	v.SetDefault("engine.move_time", d.Engine.MoveTime)
	v.SetDefault("workers", d.Workers)
}
