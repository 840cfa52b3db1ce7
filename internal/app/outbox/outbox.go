package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"alxtravel/internal/domain/shared/events"
)

// EventRecord is a domain event serialized for the outbox table/collection.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Claimed is a record leased to one relay worker.
type Claimed struct {
	EventRecord
	Attempts int
}

// Source is the relay-facing side of an outbox. Claim returns nil when nothing is due.
type Source interface {
	Claim(ctx context.Context, workerID string) (*Claimed, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

// Notifier wakes the relay after a commit so it does not wait for the next poll.
type Notifier interface {
	Notify()
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{},
	}, nil
}

// Encode turns events into records. Stores call it inside their transaction and clear the
// aggregate's pending events only after commit, so a retried transaction encodes them again.
func Encode(encoder EventEncoder, evs []events.DomainEvent) ([]EventRecord, error) {
	if len(evs) == 0 {
		return nil, nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	out := make([]EventRecord, 0, len(evs))
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
