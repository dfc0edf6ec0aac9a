package mediator

import (
	"context"
	"fmt"
)

// Sender is the caller-facing side of the mediator.
type Sender interface {
	Send(ctx context.Context, request Request) (Response, error)
}

// Mediator sends a request through the dispatcher and drains the events it
// produced through the event emitter.
type Mediator struct {
	dispatcher Dispatcher
	emitter    *EventEmitter
}

var _ Sender = (*Mediator)(nil)

type options struct {
	emitter    *EventEmitter
	middleware *MiddlewareChain
	dispatcher Dispatcher
}

// Option configures a Mediator.
type Option func(*options)

// WithEventEmitter enables event delivery. Without it produced events are
// discarded.
func WithEventEmitter(emitter *EventEmitter) Option {
	return func(o *options) {
		o.emitter = emitter
	}
}

// WithMiddlewareChain sets the chain the default dispatcher wraps handlers in.
func WithMiddlewareChain(chain *MiddlewareChain) Option {
	return func(o *options) {
		o.middleware = chain
	}
}

// WithDispatcher replaces the default dispatcher. The registry, container and
// middleware chain passed to New are then unused by the mediator.
func WithDispatcher(dispatcher Dispatcher) Option {
	return func(o *options) {
		o.dispatcher = dispatcher
	}
}

// New builds a Mediator over requests and container. Without options it
// dispatches with no middleware and drops produced events.
func New(requests *RequestRegistry, container Container, opts ...Option) *Mediator {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	dispatcher := o.dispatcher
	if dispatcher == nil {
		dispatcher = NewDispatcher(requests, container, o.middleware)
	}

	return &Mediator{
		dispatcher: dispatcher,
		emitter:    o.emitter,
	}
}

// Send dispatches the request and emits the produced events, most recently
// produced first. The response is returned only after every event was emitted.
func (m *Mediator) Send(ctx context.Context, request Request) (Response, error) {
	result, err := m.dispatcher.Dispatch(ctx, request)
	if err != nil {
		return nil, err
	}

	if len(result.Events) > 0 {
		if err := m.sendEvents(ctx, result.Events); err != nil {
			return nil, err
		}
	}

	return result.Response, nil
}

func (m *Mediator) sendEvents(ctx context.Context, events []Event) error {
	if m.emitter == nil {
		return nil
	}

	pending := make([]Event, len(events))
	copy(pending, events)

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		last := len(pending) - 1
		event := pending[last]
		pending = pending[:last]

		if err := m.emitter.Emit(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Send sends request through s and asserts the response type. A nil response
// yields the zero value of R.
func Send[R any](ctx context.Context, s Sender, request Request) (R, error) {
	var zero R

	response, err := s.Send(ctx, request)
	if err != nil {
		return zero, err
	}
	if response == nil {
		return zero, nil
	}

	typed, ok := response.(R)
	if !ok {
		return zero, fmt.Errorf("%w: got %T, want %T", ErrUnexpectedResponse, response, zero)
	}
	return typed, nil
}
