// README: Read-only cleaner profile snapshots used for eligibility checks.
package cleaner

import (
	"time"

	"sweeply/internal/types"
)

// Window is a time-of-day interval in minutes from midnight, [Start, End).
type Window struct {
	StartMin int
	EndMin   int
}

// Covers reports whether a job spanning [startMin, endMin) fits inside the window.
func (w Window) Covers(startMin, endMin int) bool {
	return startMin >= w.StartMin && endMin <= w.EndMin
}

// Profile is a snapshot of a cleaner as owned by the profile-management
// collaborator. This core never mutates it.
type Profile struct {
	ID                types.ID
	Services          []string // service-type tags offered
	Postcode          string
	RadiusMiles       float64
	Availability      map[time.Weekday][]Window
	BlockedDates      map[string]struct{} // "2006-01-02" keys
	MaxBookingsPerDay int
	Rating            float64
	TotalJobs         int
}

// Offers reports whether the cleaner offers the given service-type tag.
func (p *Profile) Offers(serviceType string) bool {
	for _, s := range p.Services {
		if s == serviceType {
			return true
		}
	}
	return false
}

// AvailableFor reports whether any window on the given weekday covers the
// whole job span.
func (p *Profile) AvailableFor(weekday time.Weekday, startMin, durationHours int) bool {
	endMin := startMin + durationHours*60
	for _, w := range p.Availability[weekday] {
		if w.Covers(startMin, endMin) {
			return true
		}
	}
	return false
}

// IsBlocked reports whether the cleaner has blocked the given calendar date.
func (p *Profile) IsBlocked(date time.Time) bool {
	_, ok := p.BlockedDates[date.Format("2006-01-02")]
	return ok
}
