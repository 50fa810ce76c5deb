// Package config defines the tennismetrics configuration and its loader.
//
// Precedence, low to high: defaults from New, an optional YAML file, then
// TENNIS_* environment variables (a double underscore nests, so
// TENNIS_NBI__MIN_YEAR sets nbi.min_year).
package config

import (
	"fmt"
	"runtime"

	"github.com/go-playground/validator/v10"

	"github.com/pable/go-tennis-metrics/internal/index"
	"github.com/pable/go-tennis-metrics/internal/parser"
	"github.com/pable/go-tennis-metrics/internal/tournament"
)

var validate = validator.New()

// Config is the full process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// Workers bounds score parsing and career aggregation fan-out.
	Workers int `koanf:"workers" validate:"min=1,max=512"`

	// MetricsTextfile, when set, receives a Prometheus text dump after each build.
	MetricsTextfile string `koanf:"metrics_textfile"`

	Parser      ParserConfig      `koanf:"parser"`
	Tournaments TournamentsConfig `koanf:"tournaments"`
	NBI         NBIConfig         `koanf:"nbi"`
	GSDI        GSDIConfig        `koanf:"gsdi"`
	Analyze     AnalyzeConfig     `koanf:"analyze"`
}

// ParserConfig bounds what the score parser accepts.
type ParserConfig struct {
	MaxSets     int `koanf:"max_sets" validate:"min=1,max=5"`
	MaxSetGames int `koanf:"max_set_games" validate:"min=6,max=200"`
	// DecidingTiebreakTarget forces the target of a 7-6 deciding set. Zero
	// leaves it ambiguous between 7 and 10.
	DecidingTiebreakTarget int `koanf:"deciding_tiebreak_target" validate:"omitempty,oneof=7 10"`
}

// Alias maps one historical tournament name to a canonical Grand Slam.
type Alias struct {
	Name string `koanf:"name" validate:"required"`
	Slam string `koanf:"slam" validate:"oneof='Australian Open' 'Roland Garros' Wimbledon 'US Open'"`
}

// TournamentsConfig extends the built-in Grand Slam alias table.
type TournamentsConfig struct {
	Aliases          []Alias `koanf:"aliases" validate:"dive"`
	FuzzyMaxDistance int     `koanf:"fuzzy_max_distance" validate:"min=0,max=3"`
}

// NBIConfig tunes the Nailbiter Index.
type NBIConfig struct {
	Weights       index.NBIWeights  `koanf:"weights"`
	Normalization string            `koanf:"normalization" validate:"oneof=minmax fixed"`
	Scales        index.FixedScales `koanf:"scales"`
	MinYear       int               `koanf:"min_year" validate:"min=0"`
}

// GSDIConfig tunes the Dominance Index.
type GSDIConfig struct {
	Weights               index.GSDIWeights     `koanf:"weights"`
	Points                index.PointsEstimator `koanf:"points"`
	DefaultMatchMinutes   float64               `koanf:"default_match_minutes" validate:"gt=0"`
	SpeedReferenceMinutes float64               `koanf:"speed_reference_minutes" validate:"gt=0"`
}

// AnalyzeConfig configures the narrative command.
type AnalyzeConfig struct {
	Model     string `koanf:"model" validate:"required"`
	MaxTokens int    `koanf:"max_tokens" validate:"min=64,max=8192"`
}

// New returns a Config holding every default.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Workers:  runtime.NumCPU(),
		Parser: ParserConfig{
			MaxSets:     parser.DefaultMaxSets,
			MaxSetGames: parser.DefaultMaxSetGames,
		},
		Tournaments: TournamentsConfig{
			FuzzyMaxDistance: 1,
		},
		NBI: NBIConfig{
			Weights:       index.DefaultNBIWeights(),
			Normalization: string(index.NormalizeMinMax),
			Scales:        index.DefaultFixedScales(),
		},
		GSDI: GSDIConfig{
			Weights:               index.DefaultGSDIWeights(),
			Points:                index.DefaultPointsEstimator(),
			DefaultMatchMinutes:   120,
			SpeedReferenceMinutes: 240,
		},
		Analyze: AnalyzeConfig{
			Model:     "claude-haiku-4-5-20251001",
			MaxTokens: 1024,
		},
	}
}

// Validate checks field constraints and that both weight sets sum to one.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.NBI.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: nbi: %w", ErrInvalidConfig, err)
	}
	if err := c.GSDI.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: gsdi: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ParserOptions translates the parser section.
func (c *Config) ParserOptions() []parser.Option {
	opts := []parser.Option{
		parser.WithMaxSets(c.Parser.MaxSets),
		parser.WithMaxSetGames(c.Parser.MaxSetGames),
	}
	if c.Parser.DecidingTiebreakTarget != 0 {
		opts = append(opts, parser.WithDecidingTiebreakTarget(c.Parser.DecidingTiebreakTarget))
	}
	return opts
}

// TournamentOptions translates the tournaments section.
func (c *Config) TournamentOptions() []tournament.Option {
	aliases := make(map[string]string, len(c.Tournaments.Aliases))
	for _, a := range c.Tournaments.Aliases {
		aliases[a.Name] = a.Slam
	}
	return []tournament.Option{
		tournament.WithAliases(aliases),
		tournament.WithMaxDistance(c.Tournaments.FuzzyMaxDistance),
	}
}

// NBIOptions translates the nbi section.
func (c *Config) NBIOptions() []index.NBIOption {
	return []index.NBIOption{
		index.WithNBIWeights(c.NBI.Weights),
		index.WithNormalization(index.Normalization(c.NBI.Normalization), c.NBI.Scales),
		index.WithMinYear(c.NBI.MinYear),
	}
}

// GSDIOptions translates the gsdi section.
func (c *Config) GSDIOptions() []index.GSDIOption {
	return []index.GSDIOption{
		index.WithGSDIWeights(c.GSDI.Weights),
		index.WithPointsEstimator(c.GSDI.Points),
		index.WithSpeedMinutes(c.GSDI.SpeedReferenceMinutes, c.GSDI.DefaultMatchMinutes),
	}
}
