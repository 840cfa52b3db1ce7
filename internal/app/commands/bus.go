package commands

import (
	"context"
	"fmt"
	"sort"

	"alxtravel/internal/domain/shared/fault"
)

// Command is a write intent. Key selects the handler.
type Command interface {
	Key() string
}

// Handler executes one command type.
type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// Bus dispatches commands, possibly through middleware.
type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

// Wiring mistakes surface as Unknown (500); a missing bus means the service is not ready.
var (
	ErrHandlerNotFound = fault.New(fault.Unknown, "commands: handler not found")
	ErrInvalidCommand  = fault.New(fault.Unknown, "commands: invalid command for handler")
	ErrResultType      = fault.New(fault.Unknown, "commands: result type mismatch")
	ErrNilBus          = fault.New(fault.Unavailable, "commands: bus not configured")
)

type route func(ctx context.Context, cmd Command) (any, error)

// InMemoryBus routes commands by key. Registration happens during wiring, before any Dispatch.
type InMemoryBus struct {
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]route)}
}

// RegisterHandler binds key to a typed handler. Empty or duplicate keys panic.
func RegisterHandler[C Command, R any](bus *InMemoryBus, key string, handler Handler[C, R]) {
	if bus == nil {
		panic("commands: nil bus")
	}
	if key == "" {
		panic("commands: empty key registration")
	}
	if _, exists := bus.routes[key]; exists {
		panic("commands: duplicate registration for " + key)
	}
	bus.routes[key] = func(ctx context.Context, raw Command) (any, error) {
		cmd, ok := raw.(C)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrInvalidCommand, key, raw)
		}
		return handler.Handle(ctx, cmd)
	}
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	if cmd == nil {
		return nil, fmt.Errorf("%w: nil command", ErrInvalidCommand)
	}
	h, ok := b.routes[cmd.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, cmd.Key())
	}
	return h(ctx, cmd)
}

// Keys lists registered command keys in sorted order.
func (b *InMemoryBus) Keys() []string {
	keys := make([]string, 0, len(b.routes))
	for k := range b.routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dispatch sends cmd through bus and asserts the result type. A nil result yields the zero R.
func Dispatch[C Command, R any](ctx context.Context, bus Bus, cmd C) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Dispatch(ctx, cmd)
	if err != nil || res == nil {
		return zero, err
	}
	value, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrResultType, cmd.Key(), res)
	}
	return value, nil
}
