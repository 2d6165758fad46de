// README: Rejection records; a cleaner who declines a booking is never re-offered it.
package assignment

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sweeply/internal/types"
)

// RejectionStore persists cleaner refusals per booking. Records are
// insert-only and never expire for the lifetime of the booking.
type RejectionStore interface {
	// Record is idempotent: rejecting twice equals rejecting once.
	Record(ctx context.Context, cleanerID, bookingID types.ID, at time.Time) error
	HasRejected(ctx context.Context, cleanerID, bookingID types.ID) (bool, error)
}

type PGRejectionStore struct {
	db *pgxpool.Pool
}

func NewPGRejectionStore(db *pgxpool.Pool) *PGRejectionStore {
	return &PGRejectionStore{db: db}
}

func (s *PGRejectionStore) Record(ctx context.Context, cleanerID, bookingID types.ID, at time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO job_rejections (cleaner_id, booking_id, rejected_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (cleaner_id, booking_id) DO NOTHING`,
		string(cleanerID), string(bookingID), at,
	)
	return err
}

func (s *PGRejectionStore) HasRejected(ctx context.Context, cleanerID, bookingID types.ID) (bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM job_rejections
			WHERE cleaner_id = $1 AND booking_id = $2
		)`, string(cleanerID), string(bookingID),
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

type rejectionKey struct {
	cleanerID, bookingID types.ID
}

// MemRejectionStore backs tests.
type MemRejectionStore struct {
	mu      sync.Mutex
	records map[rejectionKey]time.Time
}

func NewMemRejectionStore() *MemRejectionStore {
	return &MemRejectionStore{records: make(map[rejectionKey]time.Time)}
}

func (s *MemRejectionStore) Record(_ context.Context, cleanerID, bookingID types.ID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rejectionKey{cleanerID, bookingID}
	if _, ok := s.records[key]; !ok {
		s.records[key] = at
	}
	return nil
}

func (s *MemRejectionStore) HasRejected(_ context.Context, cleanerID, bookingID types.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[rejectionKey{cleanerID, bookingID}]
	return ok, nil
}

// Len reports how many distinct rejections exist, for idempotence assertions.
func (s *MemRejectionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
