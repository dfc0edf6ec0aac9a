package mediator

import (
	"context"
	"fmt"
)

// EventEmitter routes an event to every handler bound to its exact name and
// then, if configured, to a message broker.
type EventEmitter struct {
	events    *EventRegistry
	container Container
	broker    MessageBroker
}

// EmitterOption configures an EventEmitter.
type EmitterOption func(*EventEmitter)

// WithMessageBroker forwards every emitted event to broker after the local
// handlers ran.
func WithMessageBroker(broker MessageBroker) EmitterOption {
	return func(e *EventEmitter) {
		e.broker = broker
	}
}

// NewEventEmitter builds an emitter that resolves handlers from container.
func NewEventEmitter(events *EventRegistry, container Container, opts ...EmitterOption) *EventEmitter {
	e := &EventEmitter{
		events:    events,
		container: container,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit invokes bound handlers one at a time in registration order and stops
// at the first error. The broker only sees events whose local handlers all
// succeeded.
func (e *EventEmitter) Emit(ctx context.Context, event Event) error {
	for _, key := range e.events.Get(event.EventName()) {
		if err := ctx.Err(); err != nil {
			return err
		}

		instance, err := e.container.Resolve(ctx, key)
		if err != nil {
			return err
		}

		handler, ok := instance.(EventHandler)
		if !ok {
			return fmt.Errorf("%w: %q resolved to %T", ErrInvalidHandler, key, instance)
		}

		if err := handler.Handle(ctx, event); err != nil {
			return err
		}
	}

	if e.broker == nil {
		return nil
	}
	return e.broker.Publish(ctx, event)
}
