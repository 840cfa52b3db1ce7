package pricing

import (
	"alxtravel/internal/domain/shared/daterange"
	"alxtravel/internal/domain/shared/fault"
	"alxtravel/internal/domain/shared/money"
)

var (
	ErrCurrencyUnset    = fault.New(fault.InvalidArgument, "pricing: currency must be defined")
	ErrFractionalNights = fault.New(fault.InvalidArgument, "pricing: range must span whole days")
	ErrNegativeNightly  = fault.New(fault.InvalidArgument, "pricing: nightly price cannot be negative")
	ErrTotalOutOfRange  = fault.New(fault.InvalidArgument, "pricing: stay total out of range")
)

// Breakdown is the price of a stay as quoted at a single instant.
type Breakdown struct {
	Nights  int
	Nightly money.Money
	Total   money.Money
}

// Quote multiplies the nightly price by the number of whole nights in r.
func Quote(nightly money.Money, r daterange.DateRange) (Breakdown, error) {
	if nightly.Currency == "" {
		return Breakdown{}, ErrCurrencyUnset
	}
	if nightly.IsNegative() {
		return Breakdown{}, ErrNegativeNightly
	}
	if err := r.Validate(); err != nil {
		return Breakdown{}, err
	}
	nights, ok := r.Nights()
	if !ok {
		return Breakdown{}, ErrFractionalNights
	}
	total, err := nightly.Multiply(int64(nights))
	if err != nil {
		return Breakdown{}, ErrTotalOutOfRange
	}
	return Breakdown{
		Nights:  nights,
		Nightly: nightly,
		Total:   total,
	}, nil
}
