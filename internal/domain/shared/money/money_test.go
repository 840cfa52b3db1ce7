package money

import (
	"errors"
	"math"
	"testing"

	"alxtravel/internal/domain/shared/fault"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{"150", 15000},
		{"150.5", 15050},
		{"150.05", 15005},
		{"0.99", 99},
		{"-2.50", -250},
		{"92233720368547757.99", 9223372036854775799},
	}
	for _, tc := range cases {
		m, err := ParseDecimal(tc.raw, "eur")
		if err != nil {
			t.Fatalf("%q: %v", tc.raw, err)
		}
		if m.Amount != tc.want || m.Currency != "EUR" {
			t.Fatalf("%q: got %+v", tc.raw, m)
		}
	}
}

func TestParseDecimalRejects(t *testing.T) {
	cases := []struct {
		raw  string
		want error
	}{
		{"", ErrInvalidAmount},
		{"1.234", ErrInvalidAmount},
		{"abc", ErrInvalidAmount},
		{".5", ErrInvalidAmount},
		{"1.", ErrInvalidAmount},
		{"1.-5", ErrInvalidAmount},
		{"1.+5", ErrInvalidAmount},
		{"+1", ErrInvalidAmount},
		{"--1", ErrInvalidAmount},
		{"1 000", ErrInvalidAmount},
		{"184467440737095517", ErrOverflow},
		{"92233720368547758.07", ErrOverflow},
		{"99999999999999999999999", ErrOverflow},
	}
	for _, tc := range cases {
		m, err := ParseDecimal(tc.raw, "EUR")
		if !errors.Is(err, tc.want) {
			t.Fatalf("%q: expected %v, got %+v err=%v", tc.raw, tc.want, m, err)
		}
		if fault.KindOf(err) != fault.InvalidArgument {
			t.Fatalf("%q: expected InvalidArgument, got %s", tc.raw, fault.KindOf(err))
		}
	}
}

func TestMultiply(t *testing.T) {
	got, err := Must(1000, "EUR").Multiply(3)
	if err != nil || got.Decimal() != "30.00" || got.Currency != "EUR" {
		t.Fatalf("unexpected product %+v err=%v", got, err)
	}
	if _, err := Must(math.MaxInt64/2+1, "EUR").Multiply(2); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
	if _, err := Must(-5, "EUR").Multiply(2); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative amounts cannot be multiplied, got %v", err)
	}
	if zero, err := Must(0, "EUR").Multiply(math.MaxInt64); err != nil || zero.Amount != 0 {
		t.Fatalf("zero must stay zero, got %+v err=%v", zero, err)
	}
}

func TestDecimalRendering(t *testing.T) {
	if got := Must(-5, "EUR").Decimal(); got != "-0.05" {
		t.Fatalf("unexpected negative rendering %s", got)
	}
	if got := Must(120050, "usd").String(); got != "1200.50 USD" {
		t.Fatalf("unexpected rendering %s", got)
	}
}

func TestNewRejectsBadCurrency(t *testing.T) {
	if _, err := New(1, "EURO"); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}
