// Package pipeline runs one batch: validate inputs, parse and enrich every
// match, then build the career, head-to-head and index tables.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-tennis-metrics/internal/aggregator"
	"github.com/pable/go-tennis-metrics/internal/enricher"
	"github.com/pable/go-tennis-metrics/internal/h2h"
	"github.com/pable/go-tennis-metrics/internal/index"
	"github.com/pable/go-tennis-metrics/internal/metrics"
	"github.com/pable/go-tennis-metrics/internal/model"
	"github.com/pable/go-tennis-metrics/internal/parser"
	"github.com/pable/go-tennis-metrics/internal/tournament"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ErrDuplicateIdentity aborts a run whose player table repeats an ID.
var ErrDuplicateIdentity = errors.New("duplicate player identity")

// ErrInvalidIdentity aborts a run whose player table has an unusable row.
var ErrInvalidIdentity = errors.New("invalid player identity")

// MissingIdentityError reports a match that references a player absent from
// the identity table. It aborts the run.
type MissingIdentityError struct {
	Row      int
	PlayerID string
	Role     string // "winner" or "loser"
}

func (e *MissingIdentityError) Error() string {
	return fmt.Sprintf("row %d: %s id %q not in player table", e.Row, e.Role, e.PlayerID)
}

// Input is the batch handed to Run. Rejected carries rows the reader
// already refused, so they show up in the diagnostics.
type Input struct {
	Matches  []model.MatchRaw
	Players  []model.PlayerIdentity
	Rejected []model.RowError
}

// Options configures Run. Zero values fall back to defaults.
type Options struct {
	Logger     *zap.Logger
	Metrics    *metrics.Recorder
	Workers    int
	Parser     []parser.Option
	Tournament []tournament.Option
	NBI        []index.NBIOption
	GSDI       []index.GSDIOption
}

// Result holds every output table of one run.
type Result struct {
	Enriched    []model.MatchEnriched
	Careers     []model.PlayerCareerMetrics
	H2H         *h2h.Matrix
	Nailbiters  []model.NailbiterEntry
	Dominance   []model.DominanceEntry
	Diagnostics Diagnostics
}

// runContext is built once per run and only read afterwards.
type runContext struct {
	players map[string]model.PlayerIdentity
	norm    *tournament.Normalizer
	parser  *parser.Parser
	workers int
}

// Run executes the batch. It fails on identity problems and on
// cancellation; row-level problems are reported in Result.Diagnostics.
func Run(ctx context.Context, in Input, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	rec := opts.Metrics
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	rc, err := newRunContext(in.Players, workers, opts)
	if err != nil {
		log.Error("player table rejected", zap.Error(err))
		return nil, err
	}

	diag := Diagnostics{RowsTotal: len(in.Matches) + len(in.Rejected)}
	for _, re := range in.Rejected {
		diag.add(Issue{Row: re.Row, Kind: IssueInvalidRow, Detail: re.Error()})
		rec.RowFlagged(string(IssueInvalidRow))
	}
	rec.RowsIngested(diag.RowsTotal)

	done := rec.Stage("validate")
	valid, err := rc.validateRows(in.Matches, &diag, log, rec)
	done()
	if err != nil {
		log.Error("run aborted", zap.Error(err))
		return nil, err
	}
	diag.RowsValid = len(valid)
	diag.RowsInvalid = diag.RowsTotal - diag.RowsValid
	log.Info("rows validated", zap.Int("total", diag.RowsTotal), zap.Int("valid", diag.RowsValid))

	done = rec.Stage("parse")
	enriched, err := rc.parseAndEnrich(ctx, valid)
	done()
	if err != nil {
		return nil, err
	}
	diag.collect(enriched, rec)
	log.Info("matches enriched",
		zap.Int("matches", len(enriched)),
		zap.Int("parse_failures", diag.ParseFailures),
		zap.Int("ambiguous_tiebreaks", diag.AmbiguousTiebreaks),
		zap.Int("retirements", diag.Retirements),
		zap.Int("walkovers", diag.Walkovers))

	done = rec.Stage("aggregate")
	careers, err := aggregator.AggregateCareers(in.Players, enriched, aggregator.WithWorkers(workers))
	done()
	if err != nil {
		return nil, fmt.Errorf("aggregate careers: %w", err)
	}
	for _, c := range careers {
		if err := aggregator.Check(c); err != nil {
			log.Debug("career check failed", zap.String("player_id", c.PlayerID), zap.Error(err))
		}
	}
	enriched = enricher.WithCareerContext(enriched, careers)
	rec.Players(len(careers))
	log.Info("careers aggregated", zap.Int("players", len(careers)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done = rec.Stage("h2h")
	matrix := h2h.Build(enriched)
	done()
	rec.H2HPairs(matrix.Len())

	done = rec.Stage("nbi")
	nailbiters, err := index.RankNailbiters(enriched, opts.NBI...)
	done()
	if err != nil {
		return nil, fmt.Errorf("nailbiter index: %w", err)
	}
	rec.IndexEntries("nbi", len(nailbiters))

	done = rec.Stage("gsdi")
	dominance, err := index.RankDominance(enriched, opts.GSDI...)
	done()
	if err != nil {
		return nil, fmt.Errorf("dominance index: %w", err)
	}
	rec.IndexEntries("gsdi", len(dominance))

	log.Info("indices ranked",
		zap.Int("h2h_pairs", matrix.Len()),
		zap.Int("nailbiters", len(nailbiters)),
		zap.Int("dominance", len(dominance)))

	diag.sort()
	return &Result{
		Enriched:    enriched,
		Careers:     careers,
		H2H:         matrix,
		Nailbiters:  nailbiters,
		Dominance:   dominance,
		Diagnostics: diag,
	}, nil
}

func newRunContext(players []model.PlayerIdentity, workers int, opts Options) (*runContext, error) {
	idx := make(map[string]model.PlayerIdentity, len(players))
	for i, p := range players {
		if err := validate.Struct(p); err != nil {
			return nil, fmt.Errorf("%w: player row %d: %w", ErrInvalidIdentity, i, err)
		}
		if _, dup := idx[p.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateIdentity, p.ID)
		}
		idx[p.ID] = p
	}
	return &runContext{
		players: idx,
		norm:    tournament.New(opts.Tournament...),
		parser:  parser.New(opts.Parser...),
		workers: workers,
	}, nil
}

// validateRows drops rows failing the struct rules and aborts on the first
// reference to an unknown player.
func (rc *runContext) validateRows(rows []model.MatchRaw, diag *Diagnostics, log *zap.Logger, rec *metrics.Recorder) ([]model.MatchRaw, error) {
	out := make([]model.MatchRaw, 0, len(rows))
	for _, m := range rows {
		if re := rowError(m); re != nil {
			log.Debug("row excluded", zap.Int("row", re.Row), zap.String("field", re.Field), zap.String("reason", re.Reason))
			diag.add(Issue{Row: re.Row, Kind: IssueInvalidRow, Detail: re.Error()})
			rec.RowFlagged(string(IssueInvalidRow))
			continue
		}
		if _, ok := rc.players[m.WinnerID]; !ok {
			return nil, &MissingIdentityError{Row: m.Row, PlayerID: m.WinnerID, Role: "winner"}
		}
		if _, ok := rc.players[m.LoserID]; !ok {
			return nil, &MissingIdentityError{Row: m.Row, PlayerID: m.LoserID, Role: "loser"}
		}
		out = append(out, m)
	}
	return out, nil
}

func rowError(m model.MatchRaw) *model.RowError {
	err := validate.Struct(m)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return &model.RowError{Row: m.Row, Field: fe.Field(), Reason: fmt.Sprintf("failed %q rule", fe.Tag())}
	}
	return &model.RowError{Row: m.Row, Reason: err.Error()}
}

// parseAndEnrich splits rows into contiguous chunks, one per worker. Each
// worker writes only its own slots, so output order equals input order.
func (rc *runContext) parseAndEnrich(ctx context.Context, rows []model.MatchRaw) ([]model.MatchEnriched, error) {
	out := make([]model.MatchEnriched, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	chunk := (len(rows) + rc.workers - 1) / rc.workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rc.workers)
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				parsed, perr := rc.parser.Parse(rows[i].Score)
				out[i] = enricher.Enrich(rows[i], parsed, perr, rc.norm)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parse scores: %w", err)
	}
	return out, nil
}

// IssueKind labels a diagnostics entry.
type IssueKind string

const (
	IssueInvalidRow        IssueKind = "invalid_row"
	IssueParseError        IssueKind = "parse_error"
	IssueAmbiguousTiebreak IssueKind = "ambiguous_tiebreak"
	IssueRetirement        IssueKind = "retirement"
	IssueWalkover          IssueKind = "walkover"
)

// Issue is one row-level finding.
type Issue struct {
	Row    int       `json:"row"`
	Kind   IssueKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

// Diagnostics summarises what a run recovered from.
type Diagnostics struct {
	RowsTotal          int     `json:"rows_total"`
	RowsValid          int     `json:"rows_valid"`
	RowsInvalid        int     `json:"rows_invalid"`
	ParseFailures      int     `json:"parse_failures"`
	AmbiguousTiebreaks int     `json:"ambiguous_tiebreaks"`
	Retirements        int     `json:"retirements"`
	Walkovers          int     `json:"walkovers"`
	Issues             []Issue `json:"issues"`
}

func (d *Diagnostics) add(is Issue) { d.Issues = append(d.Issues, is) }

func (d *Diagnostics) collect(ms []model.MatchEnriched, rec *metrics.Recorder) {
	flag := func(m *model.MatchEnriched, kind IssueKind, detail string) {
		d.add(Issue{Row: m.Row, Kind: kind, Detail: detail})
		rec.RowFlagged(string(kind))
	}
	for i := range ms {
		m := &ms[i]
		switch m.Outcome {
		case model.OutcomeUnparseable:
			d.ParseFailures++
			flag(m, IssueParseError, model.Deref(m.ParseError))
		case model.OutcomeRetired:
			d.Retirements++
			flag(m, IssueRetirement, m.Score)
		case model.OutcomeWalkover:
			d.Walkovers++
			flag(m, IssueWalkover, "")
		}
		if m.AmbiguousTiebreak {
			d.AmbiguousTiebreaks++
			flag(m, IssueAmbiguousTiebreak, m.Score)
		}
	}
}

func (d *Diagnostics) sort() {
	sort.SliceStable(d.Issues, func(i, j int) bool {
		if d.Issues[i].Row != d.Issues[j].Row {
			return d.Issues[i].Row < d.Issues[j].Row
		}
		return d.Issues[i].Kind < d.Issues[j].Kind
	})
}
