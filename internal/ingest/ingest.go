// Package ingest reads the match and player tables from CSV, optionally
// zstd, gzip or bzip2 compressed.
package ingest

import (
	"compress/bzip2"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-tennis-metrics/internal/model"
)

// SchemaError reports required columns missing from a header. It aborts
// the read.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Table, strings.Join(e.Missing, ", "))
}

// ErrEmptyInput is returned for a file without a header row.
var ErrEmptyInput = errors.New("empty input")

// OpenFile opens path, decompressing by extension (.zst, .gz, .bz2).
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return &readCloser{Reader: dec, close: func() error { dec.Close(); return f.Close() }}, nil
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return &readCloser{Reader: gz, close: func() error { gz.Close(); return f.Close() }}, nil
	case strings.HasSuffix(path, ".bz2"):
		return &readCloser{Reader: bzip2.NewReader(f), close: f.Close}, nil
	}
	return f, nil
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error { return r.close() }

// table is a CSV reader addressed by column name.
type table struct {
	name string
	r    *csv.Reader
	cols map[string]int
}

func newTable(name string, r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%s header: %w", name, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))] = i
	}
	return &table{name: name, r: cr, cols: cols}, nil
}

func (t *table) require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := t.cols[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Table: t.name, Missing: missing}
	}
	return nil
}

// has reports whether any of names is a column.
func (t *table) has(names ...string) bool {
	for _, n := range names {
		if _, ok := t.cols[n]; ok {
			return true
		}
	}
	return false
}

// row is one record with typed cell accessors. The first malformed cell
// is kept in err.
type row struct {
	t      *table
	index  int
	record []string
	err    *model.RowError
}

func (r *row) str(col string) string {
	i, ok := r.t.cols[col]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r *row) fail(col, reason string) {
	if r.err == nil {
		r.err = &model.RowError{Row: r.index, Field: col, Reason: reason}
	}
}

func (r *row) integer(col string) int {
	v := r.optInt(col)
	if v == nil {
		r.fail(col, "required")
		return 0
	}
	return *v
}

func (r *row) optInt(col string) *int {
	s := r.str(col)
	if s == "" {
		return nil
	}
	// Some exports write integers as "120.0".
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		return model.Ptr(int(f))
	}
	r.fail(col, fmt.Sprintf("not an integer: %q", s))
	return nil
}

func (r *row) optFloat(col string) *float64 {
	s := r.str(col)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.fail(col, fmt.Sprintf("not a number: %q", s))
		return nil
	}
	return &f
}

// MatchColumns are required in every match table.
var MatchColumns = []string{
	"tourney_name", "tourney_date", "round",
	"winner_id", "winner_name", "loser_id", "loser_name", "score",
}

// Matches is the result of reading a match table. Rejected rows had a
// malformed cell and are not in Rows.
type Matches struct {
	Rows     []model.MatchRaw
	Rejected []model.RowError
	Total    int
}

// ReadMatches reads a match table in the tennis_atp column layout.
func ReadMatches(r io.Reader) (*Matches, error) {
	t, err := newTable("matches", r)
	if err != nil {
		return nil, err
	}
	if err := t.require(MatchColumns...); err != nil {
		return nil, err
	}

	out := &Matches{}
	for i := 0; ; i++ {
		rec, err := t.r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("matches row %d: %w", i, err)
		}
		out.Total++
		rw := &row{t: t, index: i, record: rec}
		m := model.MatchRaw{
			Row:           i,
			TourneyName:   rw.str("tourney_name"),
			TourneyLevel:  rw.str("tourney_level"),
			TourneyDate:   rw.integer("tourney_date"),
			Surface:       model.ParseSurface(rw.str("surface")),
			Round:         rw.str("round"),
			BestOf:        rw.optInt("best_of"),
			WinnerID:      rw.str("winner_id"),
			WinnerName:    rw.str("winner_name"),
			WinnerCountry: rw.str("winner_ioc"),
			WinnerAge:     rw.optFloat("winner_age"),
			WinnerRank:    rw.optInt("winner_rank"),
			LoserID:       rw.str("loser_id"),
			LoserName:     rw.str("loser_name"),
			LoserCountry:  rw.str("loser_ioc"),
			LoserAge:      rw.optFloat("loser_age"),
			LoserRank:     rw.optInt("loser_rank"),
			Score:         rw.str("score"),
			Minutes:       rw.optInt("minutes"),
			WBpSaved:      rw.optInt("w_bpSaved"),
			WBpFaced:      rw.optInt("w_bpFaced"),
			LBpSaved:      rw.optInt("l_bpSaved"),
			LBpFaced:      rw.optInt("l_bpFaced"),
		}
		if rw.err != nil {
			out.Rejected = append(out.Rejected, *rw.err)
			continue
		}
		out.Rows = append(out.Rows, m)
	}
	return out, nil
}

// ReadPlayers reads a player identity table. The id column may be "id" or
// "player_id"; the name is "name", "player" or name_first + name_last; the
// country is "ioc" or "country".
func ReadPlayers(r io.Reader) ([]model.PlayerIdentity, error) {
	t, err := newTable("players", r)
	if err != nil {
		return nil, err
	}
	idCol := "id"
	if !t.has("id") {
		idCol = "player_id"
	}
	var missing []string
	if !t.has("id", "player_id") {
		missing = append(missing, "id")
	}
	if !t.has("name", "player") && !(t.has("name_first") && t.has("name_last")) {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Table: "players", Missing: missing}
	}

	var out []model.PlayerIdentity
	for i := 0; ; i++ {
		rec, err := t.r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("players row %d: %w", i, err)
		}
		rw := &row{t: t, index: i, record: rec}
		name := rw.str("name")
		if name == "" {
			name = rw.str("player")
		}
		if name == "" {
			name = strings.TrimSpace(rw.str("name_first") + " " + rw.str("name_last"))
		}
		country := rw.str("ioc")
		if country == "" {
			country = rw.str("country")
		}
		out = append(out, model.PlayerIdentity{ID: rw.str(idCol), Name: name, Country: country})
	}
	return out, nil
}

// DerivePlayers builds the identity table from the winner and loser columns
// when no player file is supplied. The first name and country seen for an
// ID win. Output is ordered by ID.
func DerivePlayers(matches []model.MatchRaw) []model.PlayerIdentity {
	seen := make(map[string]*model.PlayerIdentity)
	add := func(id, name, country string) {
		if id == "" {
			return
		}
		p, ok := seen[id]
		if !ok {
			seen[id] = &model.PlayerIdentity{ID: id, Name: name, Country: country}
			return
		}
		if p.Country == "" {
			p.Country = country
		}
	}
	for _, m := range matches {
		add(m.WinnerID, m.WinnerName, m.WinnerCountry)
		add(m.LoserID, m.LoserName, m.LoserCountry)
	}
	out := make([]model.PlayerIdentity, 0, len(seen))
	for _, p := range seen {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
