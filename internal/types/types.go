// README: Common value objects shared across modules.
package types

// ID is an opaque identifier for bookings, clients, and cleaners.
type ID string

// Money is an amount in minor units (pence).
type Money struct {
	Amount   int64
	Currency string
}

// Pounds renders the amount as a decimal for display payloads.
func (m Money) Pounds() float64 {
	return float64(m.Amount) / 100
}
