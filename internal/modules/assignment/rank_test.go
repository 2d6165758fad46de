// README: Ranking tests covering ordering keys and the deterministic tiebreak.
package assignment

import (
	"testing"

	"sweeply/internal/modules/cleaner"
	"sweeply/internal/types"
)

func cand(id types.ID, rating float64, totalJobs int, distance float64) candidate {
	return candidate{
		profile:  &cleaner.Profile{ID: id, Rating: rating, TotalJobs: totalJobs},
		distance: distance,
	}
}

func assertOrder(t *testing.T, cands []candidate, want []types.ID) {
	t.Helper()
	if len(cands) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(cands), len(want))
	}
	for i, id := range want {
		if cands[i].profile.ID != id {
			got := make([]types.ID, len(cands))
			for j, c := range cands {
				got[j] = c.profile.ID
			}
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRankByRating(t *testing.T) {
	cands := []candidate{
		cand("c-low", 4.2, 100, 2),
		cand("c-high", 4.9, 10, 8),
		cand("c-mid", 4.5, 50, 4),
	}
	rankCandidates(cands)
	assertOrder(t, cands, []types.ID{"c-high", "c-mid", "c-low"})
}

func TestRankTiesBrokenByJobsThenDistance(t *testing.T) {
	cands := []candidate{
		cand("c-far", 4.5, 50, 8),
		cand("c-near", 4.5, 50, 2),
		cand("c-veteran", 4.5, 200, 8),
	}
	rankCandidates(cands)
	assertOrder(t, cands, []types.ID{"c-veteran", "c-near", "c-far"})
}

func TestRankFullTieFallsBackToID(t *testing.T) {
	cands := []candidate{
		cand("c-b", 4.5, 50, 4),
		cand("c-a", 4.5, 50, 4),
	}
	rankCandidates(cands)
	assertOrder(t, cands, []types.ID{"c-a", "c-b"})

	// Reordered input ranks the same.
	cands = []candidate{
		cand("c-a", 4.5, 50, 4),
		cand("c-b", 4.5, 50, 4),
	}
	rankCandidates(cands)
	assertOrder(t, cands, []types.ID{"c-a", "c-b"})
}
