// README: Eligibility rule tests, one rule at a time plus the daily-cap boundary.
package assignment

import (
	"context"
	"testing"
	"time"

	"sweeply/internal/modules/booking"
	"sweeply/internal/modules/cleaner"
	"sweeply/internal/types"
)

func getBooking(t *testing.T, h *harness, id types.ID) *booking.Booking {
	t.Helper()
	b, err := h.bookings.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	return b
}

func assertEligible(t *testing.T, h *harness, b *booking.Booking, cleanerID types.ID, want bool) {
	t.Helper()
	p, err := h.cleaners.Get(context.Background(), cleanerID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	_, ok, err := h.svc.eligible(context.Background(), b, p)
	if err != nil {
		t.Fatalf("eligible: %v", err)
	}
	if ok != want {
		t.Fatalf("eligible = %v, want %v", ok, want)
	}
}

func TestEligibleBaseline(t *testing.T) {
	h := newHarness(t)
	h.cleaners.Put(testProfile("c1", 4.8, 50))
	b := getBooking(t, h, mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA"))
	assertEligible(t, h, b, "c1", true)
}

func TestEligibleRequiresServiceOffered(t *testing.T) {
	h := newHarness(t)
	p := testProfile("c1", 4.8, 50)
	p.Services = []string{"regular"}
	h.cleaners.Put(p)

	b := getBooking(t, h, mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA"))
	assertEligible(t, h, b, "c1", false)
}

func TestEligibleExcludesBlockedDate(t *testing.T) {
	h := newHarness(t)
	p := testProfile("c1", 4.8, 50)
	p.BlockedDates = map[string]struct{}{monday.Format("2006-01-02"): {}}
	h.cleaners.Put(p)

	b := getBooking(t, h, mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA"))
	assertEligible(t, h, b, "c1", false)
}

func TestEligibleRequiresWindowCoveringWholeJob(t *testing.T) {
	h := newHarness(t)
	p := testProfile("c1", 4.8, 50)
	// Window ends at 15:00; the 14:00-16:00 job spills past it.
	p.Availability = map[time.Weekday][]cleaner.Window{
		time.Monday: {{StartMin: 9 * 60, EndMin: 15 * 60}},
	}
	h.cleaners.Put(p)

	b := getBooking(t, h, mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA"))
	assertEligible(t, h, b, "c1", false)

	// Extending the window to 16:00 makes the exact fit eligible.
	p.Availability[time.Monday] = []cleaner.Window{{StartMin: 9 * 60, EndMin: 16 * 60}}
	assertEligible(t, h, b, "c1", true)
}

func TestEligibleRespectsRadius(t *testing.T) {
	h := newHarness(t)
	p := testProfile("c1", 4.8, 50)
	p.Postcode = "SW3"
	p.RadiusMiles = 5 // SW-SE pair is 8 miles away
	h.cleaners.Put(p)

	b := getBooking(t, h, mustCreateBooking(t, h, booking.ServiceDeep, "SE1 9SG"))
	assertEligible(t, h, b, "c1", false)

	p.RadiusMiles = 8 // boundary: exactly at radius is allowed
	assertEligible(t, h, b, "c1", true)
}

func TestEligibleExcludesRejectedCleaner(t *testing.T) {
	h := newHarness(t)
	h.cleaners.Put(testProfile("c1", 4.8, 50))
	b := getBooking(t, h, mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA"))

	if err := h.rejections.Record(context.Background(), "c1", b.ID, time.Now()); err != nil {
		t.Fatalf("record rejection: %v", err)
	}
	assertEligible(t, h, b, "c1", false)
}

func TestEligibleDailyCapBoundary(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := testProfile("c1", 4.8, 50)
	p.MaxBookingsPerDay = 1
	h.cleaners.Put(p)

	b := getBooking(t, h, mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA"))
	assertEligible(t, h, b, "c1", true)

	// One confirmed booking on the same date fills the cap exactly.
	cid := types.ID("c1")
	err := h.store.Create(ctx, &booking.Booking{
		ID:        "b-existing",
		ClientID:  "client-2",
		CleanerID: &cid,
		Status:    booking.StatusConfirmed,
		Payment:   booking.PaymentPaid,
		Service:   booking.ServiceInfo{Type: booking.ServiceDeep, DurationHours: 2},
		Schedule:  booking.Schedule{Date: monday, StartMin: 9 * 60},
		Postcode:  "SW1",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed confirmed booking: %v", err)
	}
	assertEligible(t, h, b, "c1", false)

	// A different date does not count against the cap.
	tuesday := monday.AddDate(0, 0, 1)
	p.Availability[time.Tuesday] = p.Availability[time.Monday]
	other := *b
	other.Schedule.Date = tuesday
	assertEligible(t, h, &other, "c1", true)
}
