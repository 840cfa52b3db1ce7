package queries

import (
	"context"
	"errors"
	"testing"

	"alxtravel/internal/domain/shared/fault"
)

type nightsQuery struct{ ListingID string }

func (nightsQuery) Key() string { return "nights" }

type nightsHandler struct{}

func (nightsHandler) Handle(_ context.Context, q nightsQuery) ([]string, error) {
	return []string{q.ListingID}, nil
}

func TestAskReturnsTypedResult(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[nightsQuery, []string](bus, "nights", nightsHandler{})

	got, err := Ask[nightsQuery, []string](context.Background(), bus, nightsQuery{ListingID: "l-1"})
	if err != nil || len(got) != 1 || got[0] != "l-1" {
		t.Fatalf("unexpected result %v err=%v", got, err)
	}
	if _, err := Ask[nightsQuery, int](context.Background(), bus, nightsQuery{}); !errors.Is(err, ErrResultType) || !fault.Is(err, fault.Unknown) {
		t.Fatalf("expected ErrResultType, got %v", err)
	}
}

func TestAskWithoutBusIsUnavailable(t *testing.T) {
	_, err := Ask[nightsQuery, []string](context.Background(), nil, nightsQuery{})
	if !errors.Is(err, ErrNilBus) || !fault.Is(err, fault.Unavailable) {
		t.Fatalf("expected Unavailable ErrNilBus, got %v", err)
	}
	if _, err := NewInMemoryBus().Ask(context.Background(), nightsQuery{}); !errors.Is(err, ErrHandlerNotFound) {
		t.Fatalf("expected ErrHandlerNotFound, got %v", err)
	}
}
