// README: Booking aggregate, status definitions, and the transition table.
package booking

import (
	"time"

	"sweeply/internal/types"
)

type Status string

const (
	StatusNone       Status = "none"
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

type ServiceType string

const (
	ServiceRegular ServiceType = "regular"
	ServiceDeep    ServiceType = "deep"
	ServiceMoveIn  ServiceType = "move_in"
	ServiceMoveOut ServiceType = "move_out"
	ServiceOneTime ServiceType = "one_time"
)

func ValidServiceType(t ServiceType) bool {
	switch t {
	case ServiceRegular, ServiceDeep, ServiceMoveIn, ServiceMoveOut, ServiceOneTime:
		return true
	}
	return false
}

const (
	AssignmentManual = "manual"
	AssignmentAuto   = "auto"
)

// ServiceInfo describes what is being booked.
type ServiceInfo struct {
	Type          ServiceType
	DurationHours int
	Price         types.Money
}

// Schedule is a calendar date plus a start time-of-day, timezone-qualified.
type Schedule struct {
	Date     time.Time // calendar date; time component ignored
	StartMin int       // minutes from midnight, local to Timezone
	Timezone string    // IANA name, e.g. "Europe/London"
}

// Window returns the concrete start and end instants of the service.
func (s Schedule) Window(durationHours int) (time.Time, time.Time) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		loc = time.UTC
	}
	start := time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(),
		s.StartMin/60, s.StartMin%60, 0, 0, loc)
	return start, start.Add(time.Duration(durationHours) * time.Hour)
}

func (s Schedule) Weekday() time.Weekday {
	return s.Date.Weekday()
}

// SameDate reports whether the schedule falls on the given calendar date.
func (s Schedule) SameDate(other time.Time) bool {
	y1, m1, d1 := s.Date.Date()
	y2, m2, d2 := other.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

type Booking struct {
	ID             types.ID
	ClientID       types.ID
	CleanerID      *types.ID
	Status         Status
	StatusVersion  int
	Payment        PaymentStatus
	Service        ServiceInfo
	Schedule       Schedule
	Postcode       string // coarse prefix only; full address stays with the booking collaborator
	AssignedAt     *time.Time
	AssignmentType string // "manual" or "auto"; empty until assigned
	Rating         *int
	Review         *string
	CancelReason   *string
	CreatedAt      time.Time
}

// Event is one row of the booking status audit trail.
type Event struct {
	ID         int64
	BookingID  types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string // "client", "cleaner", "system"
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions encodes the booking lifecycle. in_progress is derived
// from the clock and never persisted, so it has no row here: completion and
// cancellation act on the persisted confirmed status.
var AllowedTransitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusConfirmed, StatusCancelled},
	StatusPaid:      {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// EffectiveStatus resolves the read-time status: a confirmed booking whose
// scheduled window contains now reads as in_progress.
func (b *Booking) EffectiveStatus(now time.Time) Status {
	if b.Status != StatusConfirmed {
		return b.Status
	}
	start, end := b.Schedule.Window(b.Service.DurationHours)
	if !now.Before(start) && now.Before(end) {
		return StatusInProgress
	}
	return b.Status
}

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}
