// Package tournament holds the static tournament tables: Grand Slam name
// normalization and round ordering.
package tournament

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// Canonical Grand Slam names.
const (
	AustralianOpen = "Australian Open"
	RolandGarros   = "Roland Garros"
	Wimbledon      = "Wimbledon"
	USOpen         = "US Open"
)

// GrandSlams lists the four majors in calendar order.
var GrandSlams = []string{AustralianOpen, RolandGarros, Wimbledon, USOpen}

// DefaultAliases maps historical or alternative tournament names to their
// canonical Grand Slam name.
var DefaultAliases = map[string]string{
	"Australian Championships":     AustralianOpen,
	"Australasian Championships":   AustralianOpen,
	"French Open":                  RolandGarros,
	"French Championships":         RolandGarros,
	"Roland-Garros":                RolandGarros,
	"The Championships":            Wimbledon,
	"The Championships, Wimbledon": Wimbledon,
	"US Championships":             USOpen,
	"U.S. Championships":           USOpen,
	"U.S. National Championships":  USOpen,
	"U.S. Open":                    USOpen,
}

// Slams whose canonical name may prefix a longer tournament name
// ("Australian Open-2", "US Open 1968"). Wimbledon only matches exactly.
var prefixSlams = []string{AustralianOpen, RolandGarros, USOpen}

// Normalizer resolves raw tournament names. It is immutable after New and
// safe for concurrent use.
type Normalizer struct {
	aliases     map[string]string // folded name -> canonical
	keys        []string          // folded alias keys, sorted, for fuzzy lookup
	maxDistance int
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithAliases adds alias -> canonical Grand Slam mappings on top of the
// defaults. Targets that are not one of the four majors are ignored.
func WithAliases(aliases map[string]string) Option {
	return func(n *Normalizer) {
		for alias, canonical := range aliases {
			if isCanonical(canonical) {
				n.aliases[fold(alias)] = canonical
			}
		}
	}
}

// WithMaxDistance sets the Levenshtein distance tolerated when no exact or
// alias match exists. Zero disables fuzzy matching.
func WithMaxDistance(d int) Option {
	return func(n *Normalizer) {
		if d >= 0 {
			n.maxDistance = d
		}
	}
}

// New builds a Normalizer from the default alias table and opts.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		aliases:     make(map[string]string, len(DefaultAliases)+len(GrandSlams)),
		maxDistance: 1,
	}
	for _, gs := range GrandSlams {
		n.aliases[fold(gs)] = gs
	}
	for alias, canonical := range DefaultAliases {
		n.aliases[fold(alias)] = canonical
	}
	for _, opt := range opts {
		opt(n)
	}
	for k := range n.aliases {
		n.keys = append(n.keys, k)
	}
	sort.Strings(n.keys)
	return n
}

// GrandSlam returns the canonical Grand Slam name for a raw tournament name
// and whether it is one.
func (n *Normalizer) GrandSlam(name string) (string, bool) {
	f := fold(strings.TrimSpace(name))
	if f == "" {
		return "", false
	}
	if gs, ok := n.aliases[f]; ok {
		return gs, true
	}
	for _, gs := range prefixSlams {
		if strings.HasPrefix(f, fold(gs)) {
			return gs, true
		}
	}
	if n.maxDistance == 0 {
		return "", false
	}
	best, bestDist := "", n.maxDistance+1
	for _, k := range n.keys {
		if d := levenshtein.ComputeDistance(f, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best == "" {
		return "", false
	}
	return n.aliases[best], true
}

// Key returns the name used to group matches by tournament: the canonical
// Grand Slam name for majors, the trimmed raw name otherwise.
func (n *Normalizer) Key(name string) string {
	if gs, ok := n.GrandSlam(name); ok {
		return gs
	}
	return strings.TrimSpace(name)
}

func isCanonical(name string) bool {
	for _, gs := range GrandSlams {
		if gs == name {
			return true
		}
	}
	return false
}

// fold case-folds s. Casers are stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
