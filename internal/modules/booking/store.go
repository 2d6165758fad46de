// README: Booking store contract and the PostgreSQL implementation.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sweeply/internal/types"
)

// Store is the persistence contract for bookings. PGStore is the production
// implementation; MemStore backs tests and local development.
type Store interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)

	// UpdateStatus performs a compare-and-set transition: it succeeds only if
	// the row still has the expected from-status and version.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error)

	// AssignCleaner attaches a cleaner only if none is attached yet and the
	// booking is still pending or paid. A paid booking advances to confirmed
	// in the same write. This is the sole concurrency primitive guarding the
	// at-most-one-cleaner invariant.
	AssignCleaner(ctx context.Context, id, cleanerID types.ID, assignmentType string, at time.Time) (bool, error)

	// MarkPaid records payment capture on a pending booking; with a cleaner
	// already attached the booking advances to confirmed, otherwise to paid.
	MarkPaid(ctx context.Context, id types.ID) (bool, error)

	SetRating(ctx context.Context, id types.ID, rating int, review *string) error
	SetCancelReason(ctx context.Context, id types.ID, reason string) error
	AppendEvent(ctx context.Context, e *Event) error

	// ListOpen returns pending/paid bookings with no cleaner attached,
	// ordered by schedule date then start time.
	ListOpen(ctx context.Context) ([]*Booking, error)
	// ListStaleUnassigned narrows ListOpen to bookings created before the cutoff.
	ListStaleUnassigned(ctx context.Context, before time.Time) ([]*Booking, error)
	// CountAssignedOnDate counts a cleaner's confirmed bookings on a calendar date.
	CountAssignedOnDate(ctx context.Context, cleanerID types.ID, date time.Time) (int, error)

	ListByClient(ctx context.Context, clientID types.ID) ([]*Booking, error)
	ListByCleaner(ctx context.Context, cleanerID types.ID) ([]*Booking, error)
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const bookingColumns = `
	id, client_id, cleaner_id, status, status_version, payment_status,
	service_type, duration_hours, price_pence, currency,
	schedule_date, start_min, timezone, postcode,
	assigned_at, assignment_type, rating, review, cancel_reason, created_at`

func (s *PGStore) Create(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, client_id, cleaner_id, status, status_version, payment_status,
			service_type, duration_hours, price_pence, currency,
			schedule_date, start_min, timezone, postcode,
			assigned_at, assignment_type, rating, review, cancel_reason, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20
		)`,
		string(b.ID),
		string(b.ClientID),
		idPtr(b.CleanerID),
		string(b.Status),
		b.StatusVersion,
		string(b.Payment),
		string(b.Service.Type),
		b.Service.DurationHours,
		b.Service.Price.Amount,
		b.Service.Price.Currency,
		b.Schedule.Date,
		b.Schedule.StartMin,
		b.Schedule.Timezone,
		b.Postcode,
		b.AssignedAt,
		nullIfEmpty(b.AssignmentType),
		b.Rating,
		b.Review,
		b.CancelReason,
		b.CreatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT`+bookingColumns+` FROM bookings WHERE id = $1`, string(id))
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    status_version = status_version + 1
		WHERE id = $2 AND status = $3 AND status_version = $4`,
		string(to), string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) AssignCleaner(ctx context.Context, id, cleanerID types.ID, assignmentType string, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET cleaner_id = $2,
		    assigned_at = $3,
		    assignment_type = $4,
		    status = CASE WHEN payment_status = 'paid' THEN 'confirmed' ELSE status END,
		    status_version = status_version + 1
		WHERE id = $1
		  AND cleaner_id IS NULL
		  AND status IN ('pending', 'paid')`,
		string(id), string(cleanerID), at, assignmentType,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) MarkPaid(ctx context.Context, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET payment_status = 'paid',
		    status = CASE WHEN cleaner_id IS NOT NULL THEN 'confirmed' ELSE 'paid' END,
		    status_version = status_version + 1
		WHERE id = $1 AND status = 'pending'`,
		string(id),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) SetRating(ctx context.Context, id types.ID, rating int, review *string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE bookings SET rating = $2, review = $3 WHERE id = $1`,
		string(id), rating, review,
	)
	return err
}

func (s *PGStore) SetCancelReason(ctx context.Context, id types.ID, reason string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE bookings SET cancel_reason = $2 WHERE id = $1`,
		string(id), reason,
	)
	return err
}

func (s *PGStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_events (
			booking_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.BookingID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		idPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

func (s *PGStore) ListOpen(ctx context.Context) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE status IN ('pending', 'paid') AND cleaner_id IS NULL
		ORDER BY schedule_date, start_min`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (s *PGStore) ListStaleUnassigned(ctx context.Context, before time.Time) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE status IN ('pending', 'paid')
		  AND cleaner_id IS NULL
		  AND created_at < $1
		ORDER BY created_at`, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (s *PGStore) CountAssignedOnDate(ctx context.Context, cleanerID types.ID, date time.Time) (int, error) {
	row := s.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM bookings
		WHERE cleaner_id = $1
		  AND schedule_date = $2::date
		  AND status = 'confirmed'`,
		string(cleanerID), date,
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PGStore) ListByClient(ctx context.Context, clientID types.ID) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE client_id = $1
		ORDER BY created_at DESC`, string(clientID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (s *PGStore) ListByCleaner(ctx context.Context, cleanerID types.ID) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE cleaner_id = $1
		ORDER BY schedule_date, start_min`, string(cleanerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*Booking, error) {
	var b Booking
	var cleanerID, assignmentType, review, cancelReason *string
	var rating *int
	var assignedAt *time.Time

	err := row.Scan(
		&b.ID, &b.ClientID, &cleanerID, &b.Status, &b.StatusVersion, &b.Payment,
		&b.Service.Type, &b.Service.DurationHours, &b.Service.Price.Amount, &b.Service.Price.Currency,
		&b.Schedule.Date, &b.Schedule.StartMin, &b.Schedule.Timezone, &b.Postcode,
		&assignedAt, &assignmentType, &rating, &review, &cancelReason, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if cleanerID != nil {
		v := types.ID(*cleanerID)
		b.CleanerID = &v
	}
	if assignmentType != nil {
		b.AssignmentType = *assignmentType
	}
	b.AssignedAt = assignedAt
	b.Rating = rating
	b.Review = review
	b.CancelReason = cancelReason
	return &b, nil
}

func scanBookings(rows pgx.Rows) ([]*Booking, error) {
	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func nullIfEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
