// README: Rate table access backed by PostgreSQL.
package pricing

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"sweeply/internal/modules/booking"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) ListRates(ctx context.Context) ([]Rate, error) {
	rows, err := s.db.Query(ctx,
		`SELECT service_type, pence_per_hour, currency FROM service_rates`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rate
	for rows.Next() {
		var r Rate
		var st string
		if err := rows.Scan(&st, &r.PencePerHour, &r.Currency); err != nil {
			return nil, err
		}
		r.ServiceType = booking.ServiceType(st)
		out = append(out, r)
	}
	return out, rows.Err()
}
