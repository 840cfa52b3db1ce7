package listings

import (
	"errors"
	"testing"
	"time"

	"alxtravel/internal/domain/shared/money"
)

func TestValidatePrice(t *testing.T) {
	cases := []struct {
		name  string
		price money.Money
		want  error
	}{
		{"zero", money.Must(0, "EUR"), nil},
		{"upper bound", money.Must(MaxNightlyPrice, "EUR"), nil},
		{"above bound", money.Must(MaxNightlyPrice+1, "EUR"), ErrNightlyPrice},
		{"negative", money.Must(-1, "EUR"), ErrNightlyPrice},
		{"no currency", money.Money{Amount: 100}, money.ErrInvalidCurrency},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidatePrice(tc.price); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNewListingRecordsCreation(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	l, err := NewListing(CreateListingParams{
		ID: "l-1", Owner: "host", Title: "  Loft  ", NightlyPrice: money.Must(9000, "EUR"), Now: now,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !l.Active || l.Title != "Loft" || !l.CreatedAt.Equal(now) {
		t.Fatalf("unexpected listing %+v", l)
	}
	if got := l.PendingEvents(); len(got) != 1 || got[0].EventName() != (ListingCreatedEvent{}).EventName() {
		t.Fatalf("expected one creation event, got %v", got)
	}
	if clone := l.Clone(); len(clone.PendingEvents()) != 0 {
		t.Fatal("clone must not carry pending events")
	}
	if _, err := NewListing(CreateListingParams{ID: "l-2", Owner: "host", Title: "x", NightlyPrice: money.Must(MaxNightlyPrice+1, "EUR")}); !errors.Is(err, ErrNightlyPrice) {
		t.Fatalf("expected ErrNightlyPrice, got %v", err)
	}
}

func TestOwnershipAndBookability(t *testing.T) {
	l := &Listing{Owner: "host", Active: true}
	if err := l.EnsureOwner("host"); err != nil {
		t.Fatal(err)
	}
	for _, who := range []string{"", "guest"} {
		if err := l.EnsureOwner(who); !errors.Is(err, ErrNotOwner) {
			t.Fatalf("%q: expected ErrNotOwner, got %v", who, err)
		}
	}
	l.Active = false
	if err := l.EnsureBookable(); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}
