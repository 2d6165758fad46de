// README: Assignment domain types, errors, and tuning constants.
package assignment

import (
	"errors"
	"time"

	"sweeply/internal/modules/cleaner"
	"sweeply/internal/types"
)

var (
	// ErrNotEligible means the cleaner no longer qualifies for the booking
	// (radius, availability, or profile changed since listing). Callers
	// should refresh their job list.
	ErrNotEligible = errors.New("cleaner not eligible for booking")
	// ErrNoEligibleCandidate means auto-assignment found nobody to offer the
	// job to. This is a steady state, not a failure: the booking stays
	// pending for the next sweep.
	ErrNoEligibleCandidate = errors.New("no eligible candidate")
)

const (
	// defaultMaxAttempts bounds how many ranked candidates one auto-assign
	// call will try, to cap cost under contention.
	defaultMaxAttempts = 5
)

// candidate pairs a profile with its distance to the booking, the only
// per-booking ranking input not on the profile itself.
type candidate struct {
	profile  *cleaner.Profile
	distance float64
}

// JobOffer is one row of a cleaner's available-jobs listing: a snapshot, not
// a live stream.
type JobOffer struct {
	BookingID     types.ID
	ServiceType   string
	Date          time.Time
	StartMin      int
	DurationHours int
	Postcode      string
	Price         types.Money
	DistanceMiles float64
}

// SweepResult summarizes one auto-assignment sweep.
type SweepResult struct {
	Attempted int `json:"attempted"`
	Assigned  int `json:"assigned"`
	Skipped   int `json:"skipped"`
}
