// README: In-memory booking store for unit tests and local development.
package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"sweeply/internal/types"
)

// MemStore implements Store with a mutex-guarded map. The conditional writes
// mirror the SQL in PGStore so concurrency tests exercise the same semantics.
type MemStore struct {
	mu       sync.Mutex
	bookings map[types.ID]*Booking
	events   []*Event
	nextID   int64
}

func NewMemStore() *MemStore {
	return &MemStore{bookings: make(map[types.ID]*Booking)}
}

func (s *MemStore) Create(_ context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *MemStore) Get(_ context.Context, id types.ID) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *MemStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != from || b.StatusVersion != version {
		return false, nil
	}
	b.Status = to
	b.StatusVersion++
	return true, nil
}

func (s *MemStore) AssignCleaner(_ context.Context, id, cleanerID types.ID, assignmentType string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.CleanerID != nil {
		return false, nil
	}
	if b.Status != StatusPending && b.Status != StatusPaid {
		return false, nil
	}
	cid := cleanerID
	b.CleanerID = &cid
	assigned := at
	b.AssignedAt = &assigned
	b.AssignmentType = assignmentType
	if b.Payment == PaymentPaid {
		b.Status = StatusConfirmed
	}
	b.StatusVersion++
	return true, nil
}

func (s *MemStore) MarkPaid(_ context.Context, id types.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != StatusPending {
		return false, nil
	}
	b.Payment = PaymentPaid
	if b.CleanerID != nil {
		b.Status = StatusConfirmed
	} else {
		b.Status = StatusPaid
	}
	b.StatusVersion++
	return true, nil
}

func (s *MemStore) SetRating(_ context.Context, id types.ID, rating int, review *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return ErrNotFound
	}
	r := rating
	b.Rating = &r
	b.Review = review
	return nil
}

func (s *MemStore) SetCancelReason(_ context.Context, id types.ID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.CancelReason = &reason
	return nil
}

func (s *MemStore) AppendEvent(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	cp := *e
	cp.ID = s.nextID
	s.events = append(s.events, &cp)
	return nil
}

// Events returns a snapshot of the audit trail for assertions in tests.
func (s *MemStore) Events() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *MemStore) ListOpen(_ context.Context) ([]*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Booking
	for _, b := range s.bookings {
		if (b.Status == StatusPending || b.Status == StatusPaid) && b.CleanerID == nil {
			cp := *b
			out = append(out, &cp)
		}
	}
	sortBySchedule(out)
	return out, nil
}

func (s *MemStore) ListStaleUnassigned(_ context.Context, before time.Time) ([]*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Booking
	for _, b := range s.bookings {
		if (b.Status == StatusPending || b.Status == StatusPaid) && b.CleanerID == nil && b.CreatedAt.Before(before) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) CountAssignedOnDate(_ context.Context, cleanerID types.ID, date time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.bookings {
		if b.CleanerID != nil && *b.CleanerID == cleanerID && b.Status == StatusConfirmed && b.Schedule.SameDate(date) {
			n++
		}
	}
	return n, nil
}

func (s *MemStore) ListByClient(_ context.Context, clientID types.ID) ([]*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Booking
	for _, b := range s.bookings {
		if b.ClientID == clientID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) ListByCleaner(_ context.Context, cleanerID types.ID) ([]*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Booking
	for _, b := range s.bookings {
		if b.CleanerID != nil && *b.CleanerID == cleanerID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sortBySchedule(out)
	return out, nil
}

func sortBySchedule(bs []*Booking) {
	sort.Slice(bs, func(i, j int) bool {
		if !bs[i].Schedule.Date.Equal(bs[j].Schedule.Date) {
			return bs[i].Schedule.Date.Before(bs[j].Schedule.Date)
		}
		if bs[i].Schedule.StartMin != bs[j].Schedule.StartMin {
			return bs[i].Schedule.StartMin < bs[j].Schedule.StartMin
		}
		return bs[i].ID < bs[j].ID
	})
}
