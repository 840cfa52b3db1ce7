package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "alxtravel/internal/app/outbox"
	"alxtravel/internal/domain/shared/events"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

type outboxEntry struct {
	record      appoutbox.EventRecord
	state       string
	attempts    int
	nextAttempt time.Time
	lastError   string
}

// Outbox keeps event records in memory and serves them to the relay worker.
type Outbox struct {
	mu      sync.Mutex
	encoder appoutbox.EventEncoder
	entries []*outboxEntry
}

func NewOutbox() *Outbox {
	return &Outbox{encoder: appoutbox.JSONEventEncoder{}}
}

// write encodes evs and appends them. Callers hold their own store lock, which makes the
// append part of the same atomic step as the state change.
func (o *Outbox) write(evs []events.DomainEvent) error {
	if o == nil || len(evs) == 0 {
		return nil
	}
	records, err := appoutbox.Encode(o.encoder, evs)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now().UTC()
	for _, rec := range records {
		o.entries = append(o.entries, &outboxEntry{record: rec, state: stateNew, nextAttempt: now})
	}
	return nil
}

func (o *Outbox) Claim(_ context.Context, _ string) (*appoutbox.Claimed, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now().UTC()
	for _, e := range o.entries {
		if (e.state == stateNew || e.state == stateFailed) && !e.nextAttempt.After(now) {
			e.state = stateClaimed
			return &appoutbox.Claimed{EventRecord: e.record, Attempts: e.attempts}, nil
		}
	}
	return nil, nil
}

func (o *Outbox) MarkSent(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e := o.find(id); e != nil {
		e.state = stateSent
	}
	return nil
}

func (o *Outbox) MarkFailed(_ context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e := o.find(id); e != nil {
		e.state = stateFailed
		e.attempts++
		e.nextAttempt = next
		e.lastError = errMsg
	}
	return nil
}

// Names lists event names in write order, sent or not.
func (o *Outbox) Names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.entries))
	for _, e := range o.entries {
		out = append(out, e.record.Name)
	}
	return out
}

// Pending counts records not yet published.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, e := range o.entries {
		if e.state != stateSent {
			n++
		}
	}
	return n
}

func (o *Outbox) find(id string) *outboxEntry {
	for _, e := range o.entries {
		if e.record.ID == id {
			return e
		}
	}
	return nil
}

var _ appoutbox.Source = (*Outbox)(nil)
