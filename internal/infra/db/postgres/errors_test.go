package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"alxtravel/internal/domain/shared/fault"
)

func TestTranslateClassifiesSQLState(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want fault.Kind
	}{
		{"exclusion violation", &pgconn.PgError{Code: sqlStateExclusionViolation}, fault.Conflict},
		{"unique violation", &pgconn.PgError{Code: sqlStateUniqueViolation}, fault.Conflict},
		{"wrapped exclusion", fmt.Errorf("insert: %w", &pgconn.PgError{Code: sqlStateExclusionViolation}), fault.Conflict},
		{"serialization failure", &pgconn.PgError{Code: sqlStateSerializationFailure}, fault.Unavailable},
		{"deadlock", &pgconn.PgError{Code: sqlStateDeadlockDetected}, fault.Unavailable},
		{"deadline", context.DeadlineExceeded, fault.Unavailable},
		{"cancelled", fmt.Errorf("query: %w", context.Canceled), fault.Unavailable},
		{"syntax error", &pgconn.PgError{Code: "42601"}, fault.Unknown},
		{"plain error", errors.New("boom"), fault.Unknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translate(tc.err, "insert booking")
			if kind := fault.KindOf(got); kind != tc.want {
				t.Fatalf("expected %s, got %s (%v)", tc.want, kind, got)
			}
			if !errors.Is(got, tc.err) {
				t.Fatalf("driver error must stay in the chain: %v", got)
			}
		})
	}
}

func TestTranslateKeepsClassifiedErrors(t *testing.T) {
	if translate(nil, "op") != nil {
		t.Fatal("nil must stay nil")
	}
	notFound := fault.New(fault.NotFound, "bookings: not found")
	if got := translate(notFound, "op"); got != notFound {
		t.Fatalf("classified error must pass through, got %v", got)
	}
}

func TestRetrySerializationRetriesThenGivesUp(t *testing.T) {
	conflict := &pgconn.PgError{Code: sqlStateSerializationFailure}
	calls := 0
	err := retrySerialization(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return conflict
	})
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if !errors.Is(err, conflict) {
		t.Fatalf("last failure must be returned, got %v", err)
	}
	if fault.KindOf(translate(err, "insert booking")) != fault.Unavailable {
		t.Fatalf("exhausted retries must surface as Unavailable")
	}
}

func TestRetrySerializationStopsOnSuccessOrOtherErrors(t *testing.T) {
	calls := 0
	err := retrySerialization(context.Background(), 5, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return &pgconn.PgError{Code: sqlStateDeadlockDetected}
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("expected success on second attempt, got err=%v after %d calls", err, calls)
	}

	calls = 0
	exclusion := &pgconn.PgError{Code: sqlStateExclusionViolation}
	err = retrySerialization(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return exclusion
	})
	if calls != 1 || !errors.Is(err, exclusion) {
		t.Fatalf("overlaps must not be retried, got err=%v after %d calls", err, calls)
	}
}

func TestRetrySerializationHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retrySerialization(ctx, 5, time.Hour, func() error {
		calls++
		cancel()
		return &pgconn.PgError{Code: sqlStateSerializationFailure}
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Fatalf("expected cancellation after one attempt, got err=%v calls=%d", err, calls)
	}
}
