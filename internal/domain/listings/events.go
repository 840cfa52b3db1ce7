package listings

import (
	"time"

	"alxtravel/internal/domain/shared/events"
	"alxtravel/internal/domain/shared/money"
)

type ListingCreatedEvent struct {
	ListingID    ListingID
	Owner        HostID
	NightlyPrice money.Money
	At           time.Time
}

func (e ListingCreatedEvent) EventName() string     { return "listing.created" }
func (e ListingCreatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingCreatedEvent) OccurredAt() time.Time { return e.At }

type ListingPriceChangedEvent struct {
	ListingID    ListingID
	NightlyPrice money.Money
	At           time.Time
}

func (e ListingPriceChangedEvent) EventName() string     { return "listing.price_changed" }
func (e ListingPriceChangedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingPriceChangedEvent) OccurredAt() time.Time { return e.At }

type ListingActivatedEvent struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingActivatedEvent) EventName() string     { return "listing.activated" }
func (e ListingActivatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingActivatedEvent) OccurredAt() time.Time { return e.At }

type ListingDeactivatedEvent struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingDeactivatedEvent) EventName() string     { return "listing.deactivated" }
func (e ListingDeactivatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingDeactivatedEvent) OccurredAt() time.Time { return e.At }

// ActiveChangedEvent picks the activated or deactivated event for a flag write.
func ActiveChangedEvent(id ListingID, active bool, at time.Time) events.DomainEvent {
	if active {
		return ListingActivatedEvent{ListingID: id, At: at}
	}
	return ListingDeactivatedEvent{ListingID: id, At: at}
}
