// README: Booking service implements lifecycle transitions and persistence.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sweeply/internal/types"
)

var (
	ErrNotFound          = errors.New("booking not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyAssigned   = errors.New("cleaner already assigned")
	ErrConflict          = errors.New("booking state conflict")
	ErrBadRequest        = errors.New("bad request")
)

// Pricing quotes a price for a service type and duration. The pricing module
// provides the production implementation.
type Pricing interface {
	Quote(serviceType ServiceType, durationHours int) (types.Money, error)
}

type Service struct {
	store   Store
	pricing Pricing
	log     zerolog.Logger
}

func NewService(store Store, pricing Pricing, log zerolog.Logger) *Service {
	return &Service{store: store, pricing: pricing, log: log}
}

type CreateCommand struct {
	ClientID      types.ID
	ServiceType   ServiceType
	DurationHours int
	Schedule      Schedule
	Postcode      string
}

type CancelCommand struct {
	BookingID types.ID
	ActorType string // "client", "cleaner", "system"
	ActorID   *types.ID
	Reason    string
}

type RateCommand struct {
	BookingID types.ID
	ClientID  types.ID
	Rating    int
	Review    *string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.ClientID == "" || !ValidServiceType(cmd.ServiceType) {
		return "", ErrBadRequest
	}
	if cmd.DurationHours <= 0 || cmd.Postcode == "" {
		return "", ErrBadRequest
	}
	if cmd.Schedule.StartMin < 0 || cmd.Schedule.StartMin >= 24*60 {
		return "", ErrBadRequest
	}

	price, err := s.pricing.Quote(cmd.ServiceType, cmd.DurationHours)
	if err != nil {
		return "", ErrBadRequest
	}

	id := types.ID(uuid.NewString())
	now := time.Now().UTC()
	b := &Booking{
		ID:       id,
		ClientID: cmd.ClientID,
		Status:   StatusPending,
		Payment:  PaymentUnpaid,
		Service: ServiceInfo{
			Type:          cmd.ServiceType,
			DurationHours: cmd.DurationHours,
			Price:         price,
		},
		Schedule:  cmd.Schedule,
		Postcode:  cmd.Postcode,
		CreatedAt: now,
	}
	if err := s.store.Create(ctx, b); err != nil {
		return "", err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  id,
		FromStatus: StatusNone,
		ToStatus:   StatusPending,
		ActorType:  "client",
		ActorID:    &cmd.ClientID,
		CreatedAt:  now,
	})
	return id, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByClient(ctx context.Context, clientID types.ID) ([]*Booking, error) {
	return s.store.ListByClient(ctx, clientID)
}

func (s *Service) ListByCleaner(ctx context.Context, cleanerID types.ID) ([]*Booking, error) {
	return s.store.ListByCleaner(ctx, cleanerID)
}

// CapturePayment applies the payment_captured event from the payment
// collaborator: with a cleaner attached the booking confirms, otherwise it
// moves to paid. Payment status itself is owned by the collaborator; this
// core only reacts to the signal.
func (s *Service) CapturePayment(ctx context.Context, id types.ID) error {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if b.Status != StatusPending {
		return ErrInvalidTransition
	}
	ok, err := s.store.MarkPaid(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	to := StatusPaid
	if b.CleanerID != nil {
		to = StatusConfirmed
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  id,
		FromStatus: b.Status,
		ToStatus:   to,
		ActorType:  "system",
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

// AttachCleaner performs the cleaner_accepted event. The conditional write in
// the store guarantees at most one cleaner ever lands on a booking; a lost
// race surfaces as ErrAlreadyAssigned. A pending unpaid booking keeps its
// pending status with the cleaner attached until payment is captured.
func (s *Service) AttachCleaner(ctx context.Context, id, cleanerID types.ID, assignmentType string) error {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if b.Status.Terminal() {
		return ErrInvalidTransition
	}
	if b.CleanerID != nil {
		return ErrAlreadyAssigned
	}
	ok, err := s.store.AssignCleaner(ctx, id, cleanerID, assignmentType, time.Now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyAssigned
	}
	to := b.Status
	if b.Payment == PaymentPaid {
		to = StatusConfirmed
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  id,
		FromStatus: b.Status,
		ToStatus:   to,
		ActorType:  "cleaner",
		ActorID:    &cleanerID,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

// Complete applies service_completed. The persisted from-status is always
// confirmed: in_progress is a read-time view of a confirmed booking inside
// its service window.
func (s *Service) Complete(ctx context.Context, id types.ID, actorID types.ID) error {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(b.Status, StatusCompleted) {
		return ErrInvalidTransition
	}
	ok, err := s.store.UpdateStatus(ctx, id, b.Status, StatusCompleted, b.StatusVersion)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  id,
		FromStatus: b.Status,
		ToStatus:   StatusCompleted,
		ActorType:  "cleaner",
		ActorID:    &actorID,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return err
	}
	if !CanTransition(b.Status, StatusCancelled) {
		return ErrInvalidTransition
	}
	ok, err := s.store.UpdateStatus(ctx, cmd.BookingID, b.Status, StatusCancelled, b.StatusVersion)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if cmd.Reason != "" {
		if err := s.store.SetCancelReason(ctx, cmd.BookingID, cmd.Reason); err != nil {
			s.log.Warn().Err(err).Str("booking_id", string(cmd.BookingID)).Msg("record cancel reason")
		}
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  cmd.BookingID,
		FromStatus: b.Status,
		ToStatus:   StatusCancelled,
		ActorType:  cmd.ActorType,
		ActorID:    cmd.ActorID,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

// Rate records a client rating on a completed booking.
func (s *Service) Rate(ctx context.Context, cmd RateCommand) error {
	if cmd.Rating < 1 || cmd.Rating > 5 {
		return ErrBadRequest
	}
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return err
	}
	if b.ClientID != cmd.ClientID {
		return ErrBadRequest
	}
	if b.Status != StatusCompleted {
		return ErrInvalidTransition
	}
	return s.store.SetRating(ctx, cmd.BookingID, cmd.Rating, cmd.Review)
}
