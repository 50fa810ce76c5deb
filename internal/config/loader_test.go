package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-tennis-metrics/internal/index"
	"github.com/pable/go-tennis-metrics/internal/tournament"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tennis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TENNIS_CONFIG", "")

	Convey("Given no file and no environment overrides", t, func() {
		cfg, err := Load("")

		Convey("Then every default is in place and valid", func() {
			So(err, ShouldBeNil)
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.Workers, ShouldBeGreaterThan, 0)
			So(cfg.Parser.MaxSets, ShouldEqual, 5)
			So(cfg.NBI.Weights, ShouldResemble, index.DefaultNBIWeights())
			So(cfg.NBI.Normalization, ShouldEqual, "minmax")
			So(cfg.GSDI.Points.Slope, ShouldEqual, 0.6)
			So(cfg.GSDI.SpeedReferenceMinutes, ShouldEqual, 240)
		})
	})
}

func TestLoadFile(t *testing.T) {
	t.Setenv("TENNIS_CONFIG", "")

	Convey("Given a YAML file", t, func() {
		path := writeConfig(t, `
log_level: debug
workers: 3
parser:
  deciding_tiebreak_target: 10
tournaments:
  fuzzy_max_distance: 2
  aliases:
    - name: "Championnats de France"
      slam: "Roland Garros"
nbi:
  min_year: 1990
  normalization: fixed
gsdi:
  points:
    base: 48
`)

		Convey("When it is loaded", func() {
			cfg, err := Load(path)
			So(err, ShouldBeNil)

			Convey("Then file values override defaults", func() {
				So(cfg.LogLevel, ShouldEqual, "debug")
				So(cfg.Workers, ShouldEqual, 3)
				So(cfg.Parser.DecidingTiebreakTarget, ShouldEqual, 10)
				So(cfg.NBI.MinYear, ShouldEqual, 1990)
				So(cfg.NBI.Normalization, ShouldEqual, "fixed")
				So(cfg.GSDI.Points.Base, ShouldEqual, 48)
			})

			Convey("And untouched nested fields keep their defaults", func() {
				So(cfg.Parser.MaxSets, ShouldEqual, 5)
				So(cfg.GSDI.Points.Slope, ShouldEqual, 0.6)
				So(cfg.NBI.Weights.Comeback, ShouldEqual, 0.22)
			})

			Convey("And the alias reaches the normalizer", func() {
				n := tournament.New(cfg.TournamentOptions()...)
				slam, ok := n.GrandSlam("Championnats de France")
				So(ok, ShouldBeTrue)
				So(slam, ShouldEqual, "Roland Garros")
			})
		})
	})

	Convey("Given a file that does not exist", t, func() {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		Convey("Then loading fails with ErrLoadConfig", func() {
			So(errors.Is(err, ErrLoadConfig), ShouldBeTrue)
		})
	})
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "workers: 3\nnbi:\n  min_year: 1990\n")
	t.Setenv("TENNIS_CONFIG", path)
	t.Setenv("TENNIS_WORKERS", "7")
	t.Setenv("TENNIS_NBI__MIN_YEAR", "2000")
	t.Setenv("TENNIS_GSDI__POINTS__SLOPE", "0.5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, 2000, cfg.NBI.MinYear)
	assert.Equal(t, 0.5, cfg.GSDI.Points.Slope)
}

func TestInvalidConfig(t *testing.T) {
	t.Setenv("TENNIS_CONFIG", "")

	cases := map[string]string{
		"log level":      "log_level: loud\n",
		"weights sum":    "nbi:\n  weights:\n    comeback: 0.5\n",
		"normalization":  "nbi:\n  normalization: zscore\n",
		"alias target":   "tournaments:\n  aliases:\n    - name: Queen's\n      slam: Queen's\n",
		"tiebreak":       "parser:\n  deciding_tiebreak_target: 12\n",
		"negative bonus": "gsdi:\n  weights:\n    top5_win_bonus: -3\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestOptionsTranslate(t *testing.T) {
	cfg := New()
	assert.Len(t, cfg.ParserOptions(), 2)
	cfg.Parser.DecidingTiebreakTarget = 7
	assert.Len(t, cfg.ParserOptions(), 3)
	assert.Len(t, cfg.NBIOptions(), 3)
	assert.Len(t, cfg.GSDIOptions(), 3)
	assert.NoError(t, cfg.Validate())
}
