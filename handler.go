package mediator

import (
	"context"
	"fmt"
)

// RequestHandler handles one request type. Events produced while handling are
// returned alongside the response and are dropped when err is non-nil.
type RequestHandler interface {
	Handle(ctx context.Context, request Request) (Response, []Event, error)
}

// RequestHandlerFunc adapts a function to a RequestHandler.
type RequestHandlerFunc func(ctx context.Context, request Request) (Response, []Event, error)

func (f RequestHandlerFunc) Handle(ctx context.Context, request Request) (Response, []Event, error) {
	return f(ctx, request)
}

// NewRequestHandler adapts a typed function to a RequestHandler.
func NewRequestHandler[Req Request, Res any](fn func(ctx context.Context, request Req) (Res, []Event, error)) RequestHandler {
	return RequestHandlerFunc(func(ctx context.Context, request Request) (Response, []Event, error) {
		typed, ok := request.(Req)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %T", ErrUnexpectedRequest, request)
		}
		return fn(ctx, typed)
	})
}

// EventHandler handles one event type.
type EventHandler interface {
	Handle(ctx context.Context, event Event) error
}

// EventHandlerFunc adapts a function to an EventHandler.
type EventHandlerFunc func(ctx context.Context, event Event) error

func (f EventHandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// NewEventHandler adapts a typed function to an EventHandler.
func NewEventHandler[E Event](fn func(ctx context.Context, event E) error) EventHandler {
	return EventHandlerFunc(func(ctx context.Context, event Event) error {
		typed, ok := event.(E)
		if !ok {
			return fmt.Errorf("%w: %T", ErrUnexpectedEvent, event)
		}
		return fn(ctx, typed)
	})
}
