// README: Cleaner profile store contract and the PostgreSQL implementation.
package cleaner

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sweeply/internal/types"
)

var ErrNotFound = errors.New("cleaner not found")

// Store reads profile snapshots. Profiles are owned and written by the
// profile-management collaborator; this core only queries them.
type Store interface {
	Get(ctx context.Context, id types.ID) (*Profile, error)
	ListActive(ctx context.Context) ([]*Profile, error)
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Profile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, services, postcode, radius_miles, max_bookings_per_day, rating, total_jobs
		FROM cleaners
		WHERE id = $1 AND active`, string(id))
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadCalendars(ctx, []*Profile{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PGStore) ListActive(ctx context.Context) ([]*Profile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, services, postcode, radius_miles, max_bookings_per_day, rating, total_jobs
		FROM cleaners
		WHERE active
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadCalendars(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadCalendars fills availability windows and blocked dates for the given
// profiles in two queries rather than one per cleaner.
func (s *PGStore) loadCalendars(ctx context.Context, profiles []*Profile) error {
	if len(profiles) == 0 {
		return nil
	}
	byID := make(map[types.ID]*Profile, len(profiles))
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		p.Availability = make(map[time.Weekday][]Window)
		p.BlockedDates = make(map[string]struct{})
		byID[p.ID] = p
		ids = append(ids, string(p.ID))
	}

	rows, err := s.db.Query(ctx, `
		SELECT cleaner_id, weekday, start_min, end_min
		FROM cleaner_availability
		WHERE cleaner_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var id string
		var weekday, startMin, endMin int
		if err := rows.Scan(&id, &weekday, &startMin, &endMin); err != nil {
			rows.Close()
			return err
		}
		if p, ok := byID[types.ID(id)]; ok {
			wd := time.Weekday(weekday)
			p.Availability[wd] = append(p.Availability[wd], Window{StartMin: startMin, EndMin: endMin})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.Query(ctx, `
		SELECT cleaner_id, blocked_date
		FROM cleaner_blocked_dates
		WHERE cleaner_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var date time.Time
		if err := rows.Scan(&id, &date); err != nil {
			return err
		}
		if p, ok := byID[types.ID(id)]; ok {
			p.BlockedDates[date.Format("2006-01-02")] = struct{}{}
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Services, &p.Postcode, &p.RadiusMiles,
		&p.MaxBookingsPerDay, &p.Rating, &p.TotalJobs)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
