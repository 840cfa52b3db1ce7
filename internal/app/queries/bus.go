package queries

import (
	"context"
	"fmt"
	"sort"

	"alxtravel/internal/domain/shared/fault"
)

// Query is a read request. Key selects the handler.
type Query interface {
	Key() string
}

type Handler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

// Bus answers queries, possibly through middleware.
type Bus interface {
	Ask(ctx context.Context, query Query) (any, error)
}

var (
	ErrHandlerNotFound = fault.New(fault.Unknown, "queries: handler not found")
	ErrInvalidQuery    = fault.New(fault.Unknown, "queries: invalid query for handler")
	ErrResultType      = fault.New(fault.Unknown, "queries: result type mismatch")
	ErrNilBus          = fault.New(fault.Unavailable, "queries: bus not configured")
)

type route func(ctx context.Context, q Query) (any, error)

// InMemoryBus routes queries by key.
type InMemoryBus struct {
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]route)}
}

func RegisterHandler[Q Query, R any](bus *InMemoryBus, key string, handler Handler[Q, R]) {
	if bus == nil {
		panic("queries: nil bus")
	}
	if key == "" {
		panic("queries: empty key registration")
	}
	if _, exists := bus.routes[key]; exists {
		panic("queries: duplicate registration for " + key)
	}
	bus.routes[key] = func(ctx context.Context, raw Query) (any, error) {
		q, ok := raw.(Q)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrInvalidQuery, key, raw)
		}
		return handler.Handle(ctx, q)
	}
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	if query == nil {
		return nil, fmt.Errorf("%w: nil query", ErrInvalidQuery)
	}
	h, ok := b.routes[query.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, query.Key())
	}
	return h(ctx, query)
}

func (b *InMemoryBus) Keys() []string {
	keys := make([]string, 0, len(b.routes))
	for k := range b.routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Ask runs query through bus and asserts the result type.
func Ask[Q Query, R any](ctx context.Context, bus Bus, query Q) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Ask(ctx, query)
	if err != nil || res == nil {
		return zero, err
	}
	value, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrResultType, query.Key(), res)
	}
	return value, nil
}
