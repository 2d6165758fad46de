// README: Pricing service computes booking quotes with duration discounts.
package pricing

import (
	"context"
	"errors"

	"sweeply/internal/modules/booking"
	"sweeply/internal/types"
)

var ErrUnknownServiceType = errors.New("unknown service type")

type Service struct {
	store *Store
	rates map[booking.ServiceType]int64
}

func NewService(store *Store) *Service {
	rates := make(map[booking.ServiceType]int64, len(defaultRates))
	for k, v := range defaultRates {
		rates[k] = v
	}
	return &Service{store: store, rates: rates}
}

// LoadRates overlays rate rows from the database onto the built-in card.
// Safe to skip when running without a database.
func (s *Service) LoadRates(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	rows, err := s.store.ListRates(ctx)
	if err != nil {
		return err
	}
	for _, r := range rows {
		s.rates[r.ServiceType] = r.PencePerHour
	}
	return nil
}

// Quote prices a booking: hourly rate times duration, with a 5% discount at
// four or more hours and 10% at six or more.
func (s *Service) Quote(serviceType booking.ServiceType, durationHours int) (types.Money, error) {
	rate, ok := s.rates[serviceType]
	if !ok {
		return types.Money{}, ErrUnknownServiceType
	}
	total := rate * int64(durationHours)
	switch {
	case durationHours >= 6:
		total = total * 90 / 100
	case durationHours >= 4:
		total = total * 95 / 100
	}
	return types.Money{Amount: total, Currency: defaultCurrency}, nil
}
