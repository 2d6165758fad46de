// README: Assignment service tests (accept/reject/complete flows, auto-assign, sweeps).
package assignment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sweeply/internal/config"
	"sweeply/internal/geo"
	"sweeply/internal/modules/booking"
	"sweeply/internal/modules/cleaner"
	"sweeply/internal/modules/pricing"
	"sweeply/internal/notify"
	"sweeply/internal/types"
)

// monday is a fixed service date so weekday-based availability is stable.
var monday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

type harness struct {
	svc        *Service
	store      *booking.MemStore
	bookings   *booking.Service
	cleaners   *cleaner.MemStore
	rejections *MemRejectionStore
	attempts   *MemAttemptLog
	publisher  *notify.Memory
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := booking.NewMemStore()
	bookings := booking.NewService(store, pricing.NewService(nil), zerolog.Nop())
	cleaners := cleaner.NewMemStore()
	rejections := NewMemRejectionStore()
	attempts := NewMemAttemptLog()
	publisher := notify.NewMemory()

	svc := NewService(Deps{
		Bookings:   store,
		Lifecycle:  bookings,
		Cleaners:   cleaners,
		Rejections: rejections,
		Attempts:   attempts,
		Estimator:  geo.NewPrefixTable(999),
		Publisher:  publisher,
		Config: config.AssignmentConfig{
			StaleAfter:      2 * time.Hour,
			MaxAttempts:     5,
			AttemptCooldown: 5 * time.Minute,
		},
		Log: zerolog.Nop(),
	})

	return &harness{
		svc:        svc,
		store:      store,
		bookings:   bookings,
		cleaners:   cleaners,
		rejections: rejections,
		attempts:   attempts,
		publisher:  publisher,
	}
}

func mustCreateBooking(t *testing.T, h *harness, serviceType booking.ServiceType, postcode string) types.ID {
	t.Helper()
	id, err := h.bookings.Create(context.Background(), booking.CreateCommand{
		ClientID:      "client-1",
		ServiceType:   serviceType,
		DurationHours: 2,
		Schedule:      booking.Schedule{Date: monday, StartMin: 14 * 60, Timezone: "Europe/London"},
		Postcode:      postcode,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return id
}

// seedStaleBooking inserts a booking directly with an old CreatedAt so sweeps
// pick it up.
func seedStaleBooking(t *testing.T, h *harness, id types.ID, serviceType booking.ServiceType, postcode string, age time.Duration) {
	t.Helper()
	err := h.store.Create(context.Background(), &booking.Booking{
		ID:       id,
		ClientID: "client-1",
		Status:   booking.StatusPending,
		Payment:  booking.PaymentUnpaid,
		Service: booking.ServiceInfo{
			Type:          serviceType,
			DurationHours: 2,
			Price:         types.Money{Amount: 5000, Currency: "GBP"},
		},
		Schedule:  booking.Schedule{Date: monday, StartMin: 14 * 60, Timezone: "Europe/London"},
		Postcode:  postcode,
		CreatedAt: time.Now().UTC().Add(-age),
	})
	if err != nil {
		t.Fatalf("seed booking: %v", err)
	}
}

func testProfile(id types.ID, rating float64, totalJobs int) *cleaner.Profile {
	return &cleaner.Profile{
		ID:          id,
		Services:    []string{"deep", "regular"},
		Postcode:    "SW1",
		RadiusMiles: 10,
		Availability: map[time.Weekday][]cleaner.Window{
			time.Monday: {{StartMin: 9 * 60, EndMin: 18 * 60}},
		},
		MaxBookingsPerDay: 3,
		Rating:            rating,
		TotalJobs:         totalJobs,
	}
}

func assertStatus(t *testing.T, h *harness, id types.ID, want booking.Status) {
	t.Helper()
	b, err := h.bookings.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if b.Status != want {
		t.Fatalf("status = %s, want %s", b.Status, want)
	}
}

func TestAcceptAttachesCleanerAndKeepsPendingUntilPaid(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.cleaners.Put(testProfile("c1", 4.8, 50))

	id := mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA")

	if err := h.svc.Accept(ctx, id, "c1"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	b, err := h.bookings.Get(ctx, id)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if b.CleanerID == nil || *b.CleanerID != "c1" {
		t.Fatalf("expected cleaner c1 attached, got %v", b.CleanerID)
	}
	if b.Status != booking.StatusPending {
		t.Fatalf("unpaid booking should stay pending, got %s", b.Status)
	}
	if b.AssignmentType != booking.AssignmentManual {
		t.Fatalf("assignment type = %q, want %q", b.AssignmentType, booking.AssignmentManual)
	}

	// Payment arriving after the cleaner confirms the booking.
	if err := h.bookings.CapturePayment(ctx, id); err != nil {
		t.Fatalf("capture payment: %v", err)
	}
	assertStatus(t, h, id, booking.StatusConfirmed)

	events := h.publisher.Events()
	if len(events) != 1 || events[0].Key != notify.KeyCleanerAssigned {
		t.Fatalf("expected one %s event, got %v", notify.KeyCleanerAssigned, events)
	}
}

func TestPublishFailureDoesNotRollBackAssignment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.publisher.WithError(errors.New("broker unavailable"))
	h.cleaners.Put(testProfile("c1", 4.8, 50))

	id := mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA")

	// Accept succeeds even though the assignment event cannot be delivered.
	if err := h.svc.Accept(ctx, id, "c1"); err != nil {
		t.Fatalf("accept with failing publisher: %v", err)
	}
	b, err := h.bookings.Get(ctx, id)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if b.CleanerID == nil || *b.CleanerID != "c1" {
		t.Fatalf("expected cleaner attached despite publish failure, got %v", b.CleanerID)
	}

	if err := h.bookings.CapturePayment(ctx, id); err != nil {
		t.Fatalf("capture payment: %v", err)
	}

	// Same for completion.
	if err := h.svc.Complete(ctx, id, "c1"); err != nil {
		t.Fatalf("complete with failing publisher: %v", err)
	}
	assertStatus(t, h, id, booking.StatusCompleted)

	if events := h.publisher.Events(); len(events) != 0 {
		t.Fatalf("expected no delivered events, got %d", len(events))
	}
}

func TestAcceptRejectsIneligibleCleaner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	p := testProfile("c1", 4.8, 50)
	p.Services = []string{"regular"} // does not offer deep
	h.cleaners.Put(p)

	id := mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA")

	if err := h.svc.Accept(ctx, id, "c1"); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("accept = %v, want ErrNotEligible", err)
	}
	if err := h.svc.Accept(ctx, id, "ghost"); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("accept unknown cleaner = %v, want ErrNotEligible", err)
	}
}

func TestAcceptSecondCleanerFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.cleaners.Put(testProfile("c1", 4.8, 50))
	h.cleaners.Put(testProfile("c2", 4.5, 40))

	id := mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA")

	if err := h.svc.Accept(ctx, id, "c1"); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	if err := h.svc.Accept(ctx, id, "c2"); !errors.Is(err, booking.ErrAlreadyAssigned) {
		t.Fatalf("second accept = %v, want ErrAlreadyAssigned", err)
	}
}

func TestRejectIsIdempotentAndLeavesStatusAlone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.cleaners.Put(testProfile("c1", 4.8, 50))

	id := mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA")

	if err := h.svc.Reject(ctx, id, "c1"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if err := h.svc.Reject(ctx, id, "c1"); err != nil {
		t.Fatalf("repeat reject: %v", err)
	}
	if n := h.rejections.Len(); n != 1 {
		t.Fatalf("rejection count = %d, want 1", n)
	}
	assertStatus(t, h, id, booking.StatusPending)

	// A rejected booking disappears from this cleaner's job board.
	offers, err := h.svc.ListAvailableJobs(ctx, "c1")
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(offers) != 0 {
		t.Fatalf("expected empty job board after reject, got %d offers", len(offers))
	}
}

func TestRejectByAttachedCleanerConflicts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.cleaners.Put(testProfile("c1", 4.8, 50))

	id := mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA")
	if err := h.svc.Accept(ctx, id, "c1"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if err := h.svc.Reject(ctx, id, "c1"); !errors.Is(err, booking.ErrConflict) {
		t.Fatalf("reject while attached = %v, want ErrConflict", err)
	}
}

func TestCompleteOnlyByAttachedCleaner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.cleaners.Put(testProfile("c1", 4.8, 50))

	id := mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA")
	if err := h.svc.Accept(ctx, id, "c1"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := h.bookings.CapturePayment(ctx, id); err != nil {
		t.Fatalf("capture payment: %v", err)
	}

	if err := h.svc.Complete(ctx, id, "c2"); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("complete by stranger = %v, want ErrNotEligible", err)
	}

	if err := h.svc.Complete(ctx, id, "c1"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	assertStatus(t, h, id, booking.StatusCompleted)

	events := h.publisher.Events()
	last := events[len(events)-1]
	if last.Key != notify.KeyBookingCompleted {
		t.Fatalf("last event = %s, want %s", last.Key, notify.KeyBookingCompleted)
	}
}

func TestCompleteBeforeConfirmationFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.cleaners.Put(testProfile("c1", 4.8, 50))

	id := mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA")
	if err := h.svc.Accept(ctx, id, "c1"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// Attached but still pending-unpaid: not completable.
	if err := h.svc.Complete(ctx, id, "c1"); !errors.Is(err, booking.ErrInvalidTransition) {
		t.Fatalf("complete pending = %v, want ErrInvalidTransition", err)
	}
}

func TestAutoAssignPicksHighestRanked(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.cleaners.Put(testProfile("c1", 4.8, 50))
	h.cleaners.Put(testProfile("c2", 4.5, 80))

	id := mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA")

	got, err := h.svc.AutoAssign(ctx, id)
	if err != nil {
		t.Fatalf("auto-assign: %v", err)
	}
	if got != "c1" {
		t.Fatalf("assigned %s, want c1", got)
	}

	b, err := h.bookings.Get(ctx, id)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if b.AssignmentType != booking.AssignmentAuto {
		t.Fatalf("assignment type = %q, want %q", b.AssignmentType, booking.AssignmentAuto)
	}

	events := h.publisher.Events()
	if len(events) != 1 || events[0].Key != notify.KeyCleanerAssigned {
		t.Fatalf("expected one %s event, got %v", notify.KeyCleanerAssigned, events)
	}
}

func TestAutoAssignSkipsRejectedCleaner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.cleaners.Put(testProfile("c1", 4.8, 50))
	h.cleaners.Put(testProfile("c2", 4.5, 80))

	id := mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA")
	if err := h.svc.Reject(ctx, id, "c1"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	got, err := h.svc.AutoAssign(ctx, id)
	if err != nil {
		t.Fatalf("auto-assign: %v", err)
	}
	if got != "c2" {
		t.Fatalf("assigned %s, want c2", got)
	}
}

func TestAutoAssignNoCandidates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	id := mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA")

	if _, err := h.svc.AutoAssign(ctx, id); !errors.Is(err, ErrNoEligibleCandidate) {
		t.Fatalf("auto-assign = %v, want ErrNoEligibleCandidate", err)
	}
	assertStatus(t, h, id, booking.StatusPending)
}

func TestAutoAssignOnAssignedBooking(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.cleaners.Put(testProfile("c1", 4.8, 50))

	id := mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA")
	if err := h.svc.Accept(ctx, id, "c1"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if _, err := h.svc.AutoAssign(ctx, id); !errors.Is(err, booking.ErrAlreadyAssigned) {
		t.Fatalf("auto-assign = %v, want ErrAlreadyAssigned", err)
	}
}

func TestListAvailableJobs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.cleaners.Put(testProfile("c1", 4.8, 50))

	matching := mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA")
	mustCreateBooking(t, h, booking.ServiceMoveIn, "SW1A 2AA") // not offered

	offers, err := h.svc.ListAvailableJobs(ctx, "c1")
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("offers = %d, want 1", len(offers))
	}
	o := offers[0]
	if o.BookingID != matching {
		t.Fatalf("offer booking = %s, want %s", o.BookingID, matching)
	}
	if o.ServiceType != "deep" || o.DurationHours != 2 || o.StartMin != 14*60 {
		t.Fatalf("unexpected offer contents: %+v", o)
	}
	if o.DistanceMiles != 2 {
		t.Fatalf("distance = %v, want 2 (same prefix)", o.DistanceMiles)
	}
}

func TestSweepAssignsStaleBookings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.cleaners.Put(testProfile("c1", 4.8, 50))

	seedStaleBooking(t, h, "b-stale", booking.ServiceDeep, "SW1A 2AA", 3*time.Hour)
	mustCreateBooking(t, h, booking.ServiceDeep, "SW1A 2AA") // fresh, below threshold

	res, err := h.svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Attempted != 1 || res.Assigned != 1 || res.Skipped != 0 {
		t.Fatalf("sweep result = %+v, want {1 1 0}", res)
	}

	b, err := h.bookings.Get(ctx, "b-stale")
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if b.CleanerID == nil || *b.CleanerID != "c1" {
		t.Fatalf("expected c1 assigned, got %v", b.CleanerID)
	}
}

func TestSweepWithNoCandidatesSkips(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	seedStaleBooking(t, h, "b-stale", booking.ServiceDeep, "SW1A 2AA", 3*time.Hour)

	res, err := h.svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Attempted != 1 || res.Assigned != 0 || res.Skipped != 1 {
		t.Fatalf("sweep result = %+v, want {1 0 1}", res)
	}
	assertStatus(t, h, "b-stale", booking.StatusPending)
}

func TestSweepThrottlesRecentAttempts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.cleaners.Put(testProfile("c1", 4.8, 50))

	seedStaleBooking(t, h, "b-stale", booking.ServiceDeep, "SW1A 2AA", 3*time.Hour)

	// A concurrent sweep already claimed the attempt slot.
	if ok, err := h.attempts.TryBegin(ctx, "b-stale", 5*time.Minute); err != nil || !ok {
		t.Fatalf("prime attempt log: ok=%v err=%v", ok, err)
	}

	res, err := h.svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Attempted != 0 || res.Assigned != 0 || res.Skipped != 1 {
		t.Fatalf("sweep result = %+v, want {0 0 1}", res)
	}

	b, err := h.bookings.Get(ctx, "b-stale")
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if b.CleanerID != nil {
		t.Fatalf("throttled booking should stay unassigned, got %v", *b.CleanerID)
	}
}

func TestSweepIsolatesPerBookingFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.cleaners.Put(testProfile("c1", 4.8, 50))

	seedStaleBooking(t, h, "b-no-candidate", booking.ServiceMoveOut, "SW1A 2AA", 4*time.Hour)
	seedStaleBooking(t, h, "b-assignable", booking.ServiceDeep, "SW1A 2AA", 3*time.Hour)

	res, err := h.svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Attempted != 2 || res.Assigned != 1 || res.Skipped != 1 {
		t.Fatalf("sweep result = %+v, want {2 1 1}", res)
	}
}
