// Package parser turns raw tennis score strings into structured set, game and
// tiebreak facts.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pable/go-tennis-metrics/internal/model"
)

const (
	DefaultMaxSets        = 5
	DefaultMaxSetGames    = 20
	DefaultTiebreakTarget = 7

	// Long deciding-set tiebreak used at the majors since 2022.
	decidingTiebreakAltTarget = 10
)

// ErrMalformedScore is wrapped by every ParseError.
var ErrMalformedScore = errors.New("malformed score")

// ParseError describes why a score string was rejected.
type ParseError struct {
	Input  string
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("parse score %q: token %q: %s", e.Input, e.Token, e.Reason)
	}
	return fmt.Sprintf("parse score %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrMalformedScore }

var setToken = regexp.MustCompile(`^(\d+)-(\d+)(?:\((\d+)\))?$`)

var markers = map[string]model.Outcome{
	"RET":      model.OutcomeRetired,
	"DEF":      model.OutcomeRetired,
	"ABD":      model.OutcomeRetired,
	"W/O":      model.OutcomeWalkover,
	"WO":       model.OutcomeWalkover,
	"WALKOVER": model.OutcomeWalkover,
}

// Parser parses score strings. The zero value is not usable; call New.
type Parser struct {
	maxSets        int
	maxSetGames    int
	decidingTarget int
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxSets sets the maximum number of set tokens accepted.
func WithMaxSets(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxSets = n
		}
	}
}

// WithMaxSetGames sets the largest game count accepted for one side of a set.
// 7 is strict modern scoring; the default 20 tolerates long advantage sets.
func WithMaxSetGames(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxSetGames = n
		}
	}
}

// WithDecidingTiebreakTarget fixes the points target of a 7-6 deciding-set
// tiebreak, which otherwise is reported as ambiguous between 7 and 10.
func WithDecidingTiebreakTarget(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.decidingTarget = n
		}
	}
}

// New returns a Parser with defaults overridden by opts.
func New(opts ...Option) *Parser {
	p := &Parser{
		maxSets:     DefaultMaxSets,
		maxSetGames: DefaultMaxSetGames,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = New()

// ParseScore parses s with default settings.
func ParseScore(s string) (model.ParsedScore, error) {
	return defaultParser.Parse(s)
}

// Parse converts a score string such as "7-6(5) 1-6 6-4" or "6-3 2-1 RET"
// into a ParsedScore. Failures return an Unparseable score and a *ParseError.
func (p *Parser) Parse(score string) (model.ParsedScore, error) {
	failed := model.ParsedScore{Outcome: model.OutcomeUnparseable}
	fail := func(token, format string, args ...any) (model.ParsedScore, error) {
		return failed, &ParseError{Input: score, Token: token, Reason: fmt.Sprintf(format, args...)}
	}

	tokens := strings.Fields(score)
	if len(tokens) == 0 {
		return fail("", "empty score")
	}

	out := model.ParsedScore{Outcome: model.OutcomeCompleted}
	for i, tok := range tokens {
		if outcome, ok := markers[normalizeMarker(tok)]; ok {
			if i != len(tokens)-1 {
				return fail(tok, "outcome marker must be the last token")
			}
			out.Outcome = outcome
			out.Marker = normalizeMarker(tok)
			break
		}

		m := setToken.FindStringSubmatch(tok)
		if m == nil {
			return fail(tok, "not a set score")
		}
		w, _ := strconv.Atoi(m[1])
		l, _ := strconv.Atoi(m[2])
		if w > p.maxSetGames || l > p.maxSetGames {
			return fail(tok, "games outside 0..%d", p.maxSetGames)
		}
		set := model.SetScore{WinnerGames: w, LoserGames: l}
		if m[3] != "" {
			if set.Margin() != 1 {
				return fail(tok, "tiebreak on a set not decided by one game")
			}
			n, _ := strconv.Atoi(m[3])
			set.Tiebreak = &model.Tiebreak{SetLoserPoints: n}
		}
		out.Sets = append(out.Sets, set)
		if len(out.Sets) > p.maxSets {
			return fail(tok, "more than %d sets", p.maxSets)
		}
	}

	switch out.Outcome {
	case model.OutcomeWalkover:
		if len(out.Sets) > 0 {
			return fail(out.Marker, "walkover after played sets")
		}
		return out, nil
	case model.OutcomeRetired:
		if len(out.Sets) == 0 {
			return out, nil
		}
	}

	last := len(out.Sets) - 1
	for i := range out.Sets {
		s := &out.Sets[i]
		if i == last && out.Outcome == model.OutcomeRetired {
			s.Complete = finished(*s)
			continue
		}
		if s.WinnerGames == s.LoserGames {
			return fail(tokens[i], "set has no winner")
		}
		s.Complete = true
	}

	if out.Outcome == model.OutcomeCompleted && out.WinnerSets() <= out.LoserSets() {
		return fail("", "winner took %d sets against %d", out.WinnerSets(), out.LoserSets())
	}

	p.resolveTiebreaks(&out)
	return out, nil
}

// resolveTiebreaks infers the set winner's tiebreak points. A 7-6 deciding
// set of a completed match (sets level before it, any best-of) may have been
// a 7 or a 10 point tiebreak; unless a target was configured both readings
// are kept and the score is flagged.
func (p *Parser) resolveTiebreaks(out *model.ParsedScore) {
	last := len(out.Sets) - 1
	w, l := 0, 0
	for i := range out.Sets {
		s := &out.Sets[i]
		deciding := i == last && out.IsComplete() && w == l && isSixAll(*s)
		switch {
		case s.WonByWinner():
			w++
		case s.WonByLoser():
			l++
		}

		tb := s.Tiebreak
		if tb == nil {
			continue
		}
		target := DefaultTiebreakTarget
		if deciding && p.decidingTarget > 0 {
			target = p.decidingTarget
		}
		tb.Target = target
		tb.SetWinnerPoints = max(target, tb.SetLoserPoints+2)
		if deciding && p.decidingTarget == 0 && tb.SetLoserPoints+2 < decidingTiebreakAltTarget {
			tb.AltSetWinnerPoints = model.Ptr(decidingTiebreakAltTarget)
			out.AmbiguousTiebreak = true
		}
	}
}

func isSixAll(s model.SetScore) bool {
	return min(s.WinnerGames, s.LoserGames) == 6 && max(s.WinnerGames, s.LoserGames) == 7
}

// finished reports whether a set reached a result under standard scoring.
func finished(s model.SetScore) bool {
	if s.Tiebreak != nil {
		return true
	}
	hi, lo := max(s.WinnerGames, s.LoserGames), min(s.WinnerGames, s.LoserGames)
	return (hi >= 6 && hi-lo >= 2) || (hi == 7 && lo == 6)
}

func normalizeMarker(tok string) string {
	return strings.TrimSuffix(strings.ToUpper(tok), ".")
}
