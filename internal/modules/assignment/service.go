// README: Assignment coordinator for manual accept/reject/complete, auto-assignment, the job board, and sweeps.
package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"sweeply/internal/config"
	"sweeply/internal/geo"
	"sweeply/internal/modules/booking"
	"sweeply/internal/modules/cleaner"
	"sweeply/internal/notify"
	"sweeply/internal/types"
)

// BookingDirectory is the read side of the booking collaborator this
// coordinator needs. booking.Store satisfies it.
type BookingDirectory interface {
	Get(ctx context.Context, id types.ID) (*booking.Booking, error)
	ListOpen(ctx context.Context) ([]*booking.Booking, error)
	ListStaleUnassigned(ctx context.Context, before time.Time) ([]*booking.Booking, error)
	CountAssignedOnDate(ctx context.Context, cleanerID types.ID, date time.Time) (int, error)
}

// BookingLifecycle is the write side: the state-machine transitions this
// coordinator fires. booking.Service satisfies it.
type BookingLifecycle interface {
	AttachCleaner(ctx context.Context, id, cleanerID types.ID, assignmentType string) error
	Complete(ctx context.Context, id, actorID types.ID) error
}

type Deps struct {
	Bookings   BookingDirectory
	Lifecycle  BookingLifecycle
	Cleaners   cleaner.Store
	Rejections RejectionStore
	Attempts   AttemptLog // optional; nil disables sweep throttling
	Estimator  geo.Estimator
	Publisher  notify.Publisher
	Config     config.AssignmentConfig
	Log        zerolog.Logger
}

type Service struct {
	bookings   BookingDirectory
	lifecycle  BookingLifecycle
	cleaners   cleaner.Store
	rejections RejectionStore
	attempts   AttemptLog
	estimator  geo.Estimator
	publisher  notify.Publisher
	cfg        config.AssignmentConfig
	log        zerolog.Logger
}

func NewService(deps Deps) *Service {
	if deps.Config.MaxAttempts <= 0 {
		deps.Config.MaxAttempts = defaultMaxAttempts
	}
	return &Service{
		bookings:   deps.Bookings,
		lifecycle:  deps.Lifecycle,
		cleaners:   deps.Cleaners,
		rejections: deps.Rejections,
		attempts:   deps.Attempts,
		estimator:  deps.Estimator,
		publisher:  deps.Publisher,
		cfg:        deps.Config,
		log:        deps.Log,
	}
}

// Accept is a cleaner manually taking a job. Eligibility is re-validated at
// call time; the stale listing a cleaner clicked from proves nothing. Losing
// the attach race is an expected outcome under concurrency and surfaces as
// booking.ErrAlreadyAssigned.
func (s *Service) Accept(ctx context.Context, bookingID, cleanerID types.ID) error {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.CleanerID != nil {
		return booking.ErrAlreadyAssigned
	}
	if b.Status != booking.StatusPending && b.Status != booking.StatusPaid {
		return booking.ErrInvalidTransition
	}

	p, err := s.cleaners.Get(ctx, cleanerID)
	if err != nil {
		if errors.Is(err, cleaner.ErrNotFound) {
			return ErrNotEligible
		}
		return err
	}
	if _, ok, err := s.eligible(ctx, b, p); err != nil {
		return err
	} else if !ok {
		return ErrNotEligible
	}

	if err := s.lifecycle.AttachCleaner(ctx, bookingID, cleanerID, booking.AssignmentManual); err != nil {
		return err
	}
	s.publishAssigned(ctx, bookingID, cleanerID)
	return nil
}

// Reject records a refusal so this cleaner is never re-offered this booking.
// Booking status is untouched. Rejecting twice is a no-op.
func (s *Service) Reject(ctx context.Context, bookingID, cleanerID types.ID) error {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.CleanerID != nil && *b.CleanerID == cleanerID {
		return booking.ErrConflict
	}
	return s.rejections.Record(ctx, cleanerID, bookingID, time.Now().UTC())
}

// Complete marks the job done. Only the attached cleaner may complete, and
// only from confirmed (or its derived in_progress view).
func (s *Service) Complete(ctx context.Context, bookingID, cleanerID types.ID) error {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.CleanerID == nil || *b.CleanerID != cleanerID {
		return ErrNotEligible
	}
	if err := s.lifecycle.Complete(ctx, bookingID, cleanerID); err != nil {
		return err
	}
	s.publishCompleted(ctx, bookingID, cleanerID)
	return nil
}

// AutoAssign filters and ranks candidates, then tries to attach each of the
// top candidates in order. Every attempt re-checks eligibility: a candidate
// may have filled their day between ranking and attach. Exhausting the list
// returns ErrNoEligibleCandidate, which sweeps treat as a steady state.
func (s *Service) AutoAssign(ctx context.Context, bookingID types.ID) (types.ID, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if b.CleanerID != nil {
		return "", booking.ErrAlreadyAssigned
	}
	if b.Status != booking.StatusPending && b.Status != booking.StatusPaid {
		return "", booking.ErrInvalidTransition
	}

	cands, err := s.eligibleCandidates(ctx, b)
	if err != nil {
		return "", err
	}
	if len(cands) == 0 {
		return "", ErrNoEligibleCandidate
	}
	rankCandidates(cands)
	if len(cands) > s.cfg.MaxAttempts {
		cands = cands[:s.cfg.MaxAttempts]
	}

	for _, c := range cands {
		if _, ok, err := s.eligible(ctx, b, c.profile); err != nil {
			return "", err
		} else if !ok {
			continue
		}
		err := s.lifecycle.AttachCleaner(ctx, bookingID, c.profile.ID, booking.AssignmentAuto)
		if errors.Is(err, booking.ErrAlreadyAssigned) {
			// Someone else won the booking while we were ranking.
			return "", booking.ErrAlreadyAssigned
		}
		if err != nil {
			return "", err
		}
		s.publishAssigned(ctx, bookingID, c.profile.ID)
		return c.profile.ID, nil
	}
	return "", ErrNoEligibleCandidate
}

// ListAvailableJobs returns the bookings a cleaner could accept right now,
// ordered by schedule. A finite snapshot: the caller re-fetches after any
// failed accept.
func (s *Service) ListAvailableJobs(ctx context.Context, cleanerID types.ID) ([]JobOffer, error) {
	p, err := s.cleaners.Get(ctx, cleanerID)
	if err != nil {
		return nil, err
	}
	open, err := s.bookings.ListOpen(ctx)
	if err != nil {
		return nil, err
	}

	offers := make([]JobOffer, 0, len(open))
	for _, b := range open {
		c, ok, err := s.eligible(ctx, b, p)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		offers = append(offers, JobOffer{
			BookingID:     b.ID,
			ServiceType:   string(b.Service.Type),
			Date:          b.Schedule.Date,
			StartMin:      b.Schedule.StartMin,
			DurationHours: b.Service.DurationHours,
			Postcode:      b.Postcode,
			Price:         b.Service.Price,
			DistanceMiles: c.distance,
		})
	}
	return offers, nil
}

// Sweep attempts auto-assignment for every unassigned booking older than the
// staleness threshold. Failures are isolated per booking: one bad row never
// aborts the rest. Safe to run concurrently with itself and with manual
// accepts; the conditional assignment write arbitrates.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.StaleAfter)
	stale, err := s.bookings.ListStaleUnassigned(ctx, cutoff)
	if err != nil {
		return SweepResult{}, err
	}

	var res SweepResult
	for _, b := range stale {
		if s.attempts != nil {
			ok, err := s.attempts.TryBegin(ctx, b.ID, s.cfg.AttemptCooldown)
			if err != nil {
				s.log.Warn().Err(err).Str("booking_id", string(b.ID)).Msg("attempt log unavailable")
			} else if !ok {
				res.Skipped++
				continue
			}
		}

		res.Attempted++
		cleanerID, err := s.AutoAssign(ctx, b.ID)
		switch {
		case err == nil:
			res.Assigned++
			s.log.Info().
				Str("booking_id", string(b.ID)).
				Str("cleaner_id", string(cleanerID)).
				Msg("auto-assigned booking")
		case errors.Is(err, ErrNoEligibleCandidate):
			res.Skipped++
			s.log.Debug().Str("booking_id", string(b.ID)).Msg("no eligible candidate")
		case errors.Is(err, booking.ErrAlreadyAssigned):
			res.Skipped++
		default:
			res.Skipped++
			s.log.Error().Err(err).Str("booking_id", string(b.ID)).Msg("auto-assign failed")
		}
	}
	return res, nil
}

// RunSweepTicker runs periodic sweeps until the context is cancelled, for
// deployments without an external scheduler. External triggers should call
// Sweep directly (it is idempotent and safe to invoke on demand).
func (s *Service) RunSweepTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := s.Sweep(ctx)
			if err != nil {
				s.log.Error().Err(err).Msg("sweep failed")
				continue
			}
			s.log.Info().
				Int("attempted", res.Attempted).
				Int("assigned", res.Assigned).
				Int("skipped", res.Skipped).
				Msg("sweep complete")
		}
	}
}

// Notifications are fire-and-forget: a broker outage must not roll back an
// assignment that already happened.
func (s *Service) publishAssigned(ctx context.Context, bookingID, cleanerID types.ID) {
	err := s.publisher.PublishJSON(ctx, notify.KeyCleanerAssigned, notify.AssignmentEvent{
		BookingID: string(bookingID),
		CleanerID: string(cleanerID),
		At:        time.Now().UTC(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("booking_id", string(bookingID)).Msg("publish cleaner.assigned")
	}
}

func (s *Service) publishCompleted(ctx context.Context, bookingID, cleanerID types.ID) {
	err := s.publisher.PublishJSON(ctx, notify.KeyBookingCompleted, notify.AssignmentEvent{
		BookingID: string(bookingID),
		CleanerID: string(cleanerID),
		At:        time.Now().UTC(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("booking_id", string(bookingID)).Msg("publish booking.completed")
	}
}
