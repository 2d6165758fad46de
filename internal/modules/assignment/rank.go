// README: Candidate ranking (rating, then experience, then proximity) with a deterministic tiebreak.
package assignment

import "sort"

// rankCandidates orders candidates by rating (desc), total completed jobs
// (desc), estimated distance (asc), then cleaner ID so equal candidates rank
// reproducibly.
func rankCandidates(cands []candidate) {
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.profile.Rating != b.profile.Rating {
			return a.profile.Rating > b.profile.Rating
		}
		if a.profile.TotalJobs != b.profile.TotalJobs {
			return a.profile.TotalJobs > b.profile.TotalJobs
		}
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		return a.profile.ID < b.profile.ID
	})
}
