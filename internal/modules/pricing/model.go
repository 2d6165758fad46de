// README: Hourly rate definitions per service type.
package pricing

import "sweeply/internal/modules/booking"

type Rate struct {
	ServiceType  booking.ServiceType
	PencePerHour int64
	Currency     string
}

// defaultRates is the built-in rate card, used when no rates table is
// available or a service type has no row.
var defaultRates = map[booking.ServiceType]int64{
	booking.ServiceRegular: 2500,
	booking.ServiceDeep:    3500,
	booking.ServiceMoveIn:  4000,
	booking.ServiceMoveOut: 4000,
	booking.ServiceOneTime: 3000,
}

const defaultCurrency = "GBP"
