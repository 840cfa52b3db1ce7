package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"alxtravel/internal/domain/shared/fault"
)

var (
	ErrInvalidCurrency = fault.New(fault.InvalidArgument, "money: invalid currency code")
	ErrInvalidAmount   = fault.New(fault.InvalidArgument, "money: amount must be a decimal with at most two fraction digits")
	ErrOverflow        = fault.New(fault.InvalidArgument, "money: amount out of range")
)

// maxUnits keeps units*100 + 99 inside int64.
const maxUnits = (math.MaxInt64 - 99) / 100

// Money keeps amounts in integer minor units (cents) to avoid floating point issues.
type Money struct {
	Amount   int64
	Currency string
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	currency = strings.ToUpper(currency)
	return Money{Amount: amount, Currency: currency}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseDecimal reads "150", "150.5" or "150.50" into minor units.
func ParseDecimal(raw, currency string) (Money, error) {
	raw = strings.TrimSpace(raw)
	neg := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")
	whole, frac, hasDot := strings.Cut(raw, ".")
	if !digitsOnly(whole) || len(frac) > 2 || (hasDot && !digitsOnly(frac)) {
		return Money{}, ErrInvalidAmount
	}
	for len(frac) < 2 {
		frac += "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > maxUnits {
		return Money{}, ErrOverflow
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	amount := units*100 + cents
	if neg {
		amount = -amount
	}
	return New(amount, currency)
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Multiply scales a non-negative amount by a non-negative factor.
func (m Money) Multiply(times int64) (Money, error) {
	if m.Amount < 0 || times < 0 {
		return Money{}, ErrInvalidAmount
	}
	if m.Amount != 0 && times > math.MaxInt64/m.Amount {
		return Money{}, ErrOverflow
	}
	return Money{Amount: m.Amount * times, Currency: m.Currency}, nil
}

func (m Money) IsNegative() bool {
	return m.Amount < 0
}

// Decimal renders the amount as "123.45".
func (m Money) Decimal() string {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

func (m Money) String() string {
	return m.Decimal() + " " + m.Currency
}
