// README: Coarse distance estimation between postcode prefixes.
package geo

import (
	"context"
	"strings"
)

// Estimator approximates travel distance in miles between two coarse
// location identifiers (postcode-prefix strings such as "SW1" or "EC2").
type Estimator interface {
	Estimate(ctx context.Context, from, to string) float64
}

const sameAreaMiles = 2

// areaPair keys the static distance table. Pairs are stored once and looked
// up in both directions.
type areaPair struct {
	a, b string
}

// PrefixTable estimates distance from a static area-to-area table. Unknown
// prefixes or missing pairs fall back to a configured large distance so they
// are deprioritized, never treated as adjacent.
type PrefixTable struct {
	unknownMiles float64
	pairs        map[areaPair]float64
}

func NewPrefixTable(unknownMiles float64) *PrefixTable {
	return &PrefixTable{
		unknownMiles: unknownMiles,
		pairs: map[areaPair]float64{
			{"SW", "SW"}: 4,
			{"SE", "SE"}: 4,
			{"NW", "NW"}: 4,
			{"N", "N"}:   4,
			{"E", "E"}:   4,
			{"W", "W"}:   4,
			{"EC", "EC"}: 2,
			{"WC", "WC"}: 2,
			{"SW", "SE"}: 8,
			{"N", "SE"}:  10,
			{"E", "W"}:   12,
			{"NW", "SE"}: 15,
		},
	}
}

func (t *PrefixTable) Estimate(_ context.Context, from, to string) float64 {
	fromPrefix := normalizePrefix(from)
	toPrefix := normalizePrefix(to)
	if fromPrefix == "" || toPrefix == "" {
		return t.unknownMiles
	}
	if fromPrefix == toPrefix {
		return sameAreaMiles
	}

	fromArea := areaOf(fromPrefix)
	toArea := areaOf(toPrefix)
	if d, ok := t.pairs[areaPair{fromArea, toArea}]; ok {
		return d
	}
	if d, ok := t.pairs[areaPair{toArea, fromArea}]; ok {
		return d
	}
	return t.unknownMiles
}

// normalizePrefix reduces a raw postcode to its leading outward block,
// uppercased, at most three characters ("sw1a 2aa" -> "SW1").
func normalizePrefix(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	if len(s) > 3 {
		s = s[:3]
	}
	return s
}

// areaOf strips trailing digits from a prefix, leaving the area letters
// ("SW1" -> "SW", "N7" -> "N").
func areaOf(prefix string) string {
	for i := 0; i < len(prefix); i++ {
		if prefix[i] >= '0' && prefix[i] <= '9' {
			return prefix[:i]
		}
	}
	return prefix
}
