// README: Prefix-table distance estimator tests.
package geo

import (
	"context"
	"testing"
)

func TestPrefixTableEstimate(t *testing.T) {
	table := NewPrefixTable(999)
	ctx := context.Background()

	cases := []struct {
		name     string
		from, to string
		want     float64
	}{
		{"same full prefix", "SW1", "SW1", 2},
		{"same prefix case insensitive", "sw1", "SW1", 2},
		{"same prefix with inward part", "SW1A 2AA", "sw1", 2},
		{"same area different district", "SW1", "SW3", 4},
		{"central same area", "EC1", "EC2", 2},
		{"cross area known pair", "SW1", "SE5", 8},
		{"cross area reversed lookup", "SE5", "SW1", 8},
		{"north to south east", "N7", "SE5", 10},
		{"north to south east reversed", "SE5", "N7", 10},
		{"east to west", "E2", "W11", 12},
		{"out of region area pair", "N7", "S1", 999},
		{"unknown area pair", "SW1", "HA0", 999},
		{"unrecognized prefix", "ZZ9", "QQ1", 999},
		{"empty prefix", "", "SW1", 999},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := table.Estimate(ctx, tc.from, tc.to)
			if got != tc.want {
				t.Errorf("Estimate(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestPrefixTableNeverZero(t *testing.T) {
	table := NewPrefixTable(500)
	inputs := []string{"", "SW1", "XX", "123", "n7"}
	for _, from := range inputs {
		for _, to := range inputs {
			if d := table.Estimate(context.Background(), from, to); d <= 0 {
				t.Errorf("Estimate(%q, %q) = %v, want > 0", from, to, d)
			}
		}
	}
}

func TestNormalizePrefix(t *testing.T) {
	cases := []struct{ in, want string }{
		{"sw1a 2aa", "SW1"},
		{" EC2 ", "EC2"},
		{"N7", "N7"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := normalizePrefix(tc.in); got != tc.want {
			t.Errorf("normalizePrefix(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
