// README: Concurrency tests for booking state transitions (run with -race).
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"sweeply/internal/types"
)

func TestConcurrentPaymentVsCancel(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	id := mustCreate(t, svc)

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- svc.CapturePayment(ctx, id)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- svc.Cancel(ctx, CancelCommand{BookingID: id, ActorType: "client", Reason: "user_cancel"})
	}()

	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success < 1 || success > 2 {
		t.Fatalf("expected 1 or 2 successes, got %d", success)
	}

	b, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if b.Status != StatusPaid && b.Status != StatusCancelled {
		t.Fatalf("unexpected final status: %s", b.Status)
	}
}

func TestConcurrentAttachSameBooking(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	id := mustCreate(t, svc)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		cleanerID := types.ID(fmt.Sprintf("c%d", i))
		wg.Add(1)
		go func(cid types.ID) {
			defer wg.Done()
			errs <- svc.AttachCleaner(ctx, id, cid, AssignmentManual)
		}(cleanerID)
	}

	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrAlreadyAssigned) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 success, got %d", success)
	}

	b, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if b.CleanerID == nil || *b.CleanerID == "" {
		t.Fatalf("expected cleaner_id to be set")
	}
	if b.AssignedAt == nil {
		t.Fatalf("expected assigned_at to be set")
	}
}
