// README: Candidate filter narrows the cleaner pool to those eligible for one booking.
package assignment

import (
	"context"

	"sweeply/internal/modules/booking"
	"sweeply/internal/modules/cleaner"
)

// eligible applies all eligibility rules for one cleaner against one booking.
// It returns the candidate (with its distance) when every rule holds. Checks
// are ordered cheapest first; store-backed checks run last.
func (s *Service) eligible(ctx context.Context, b *booking.Booking, p *cleaner.Profile) (candidate, bool, error) {
	if !p.Offers(string(b.Service.Type)) {
		return candidate{}, false, nil
	}
	if p.IsBlocked(b.Schedule.Date) {
		return candidate{}, false, nil
	}
	if !p.AvailableFor(b.Schedule.Weekday(), b.Schedule.StartMin, b.Service.DurationHours) {
		return candidate{}, false, nil
	}

	dist := s.estimator.Estimate(ctx, p.Postcode, b.Postcode)
	if dist > p.RadiusMiles {
		return candidate{}, false, nil
	}

	rejected, err := s.rejections.HasRejected(ctx, p.ID, b.ID)
	if err != nil {
		return candidate{}, false, err
	}
	if rejected {
		return candidate{}, false, nil
	}

	// A cleaner exactly at their daily cap is not eligible for one more.
	n, err := s.bookings.CountAssignedOnDate(ctx, p.ID, b.Schedule.Date)
	if err != nil {
		return candidate{}, false, err
	}
	if n >= p.MaxBookingsPerDay {
		return candidate{}, false, nil
	}

	return candidate{profile: p, distance: dist}, true, nil
}

// eligibleCandidates filters the whole active pool for a booking.
func (s *Service) eligibleCandidates(ctx context.Context, b *booking.Booking) ([]candidate, error) {
	profiles, err := s.cleaners.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	var out []candidate
	for _, p := range profiles {
		c, ok, err := s.eligible(ctx, b, p)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}
