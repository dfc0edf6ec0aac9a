package mediator

import (
	"context"
	"fmt"
)

// DispatchResult pairs the response of one dispatch with the events the
// handler produced while computing it.
type DispatchResult struct {
	Response Response
	Events   []Event
}

// Dispatcher runs one request through its handler and reports the events the
// handler produced.
type Dispatcher interface {
	Dispatch(ctx context.Context, request Request) (*DispatchResult, error)
}

// DefaultDispatcher resolves the bound handler, wraps it in the middleware
// chain and invokes it.
type DefaultDispatcher struct {
	requests   *RequestRegistry
	container  Container
	middleware *MiddlewareChain
}

var _ Dispatcher = (*DefaultDispatcher)(nil)

// NewDispatcher builds a DefaultDispatcher. A nil chain means no middleware.
func NewDispatcher(requests *RequestRegistry, container Container, middleware *MiddlewareChain) *DefaultDispatcher {
	if middleware == nil {
		middleware = NewMiddlewareChain()
	}
	return &DefaultDispatcher{
		requests:   requests,
		container:  container,
		middleware: middleware,
	}
}

// Dispatch fails with ErrHandlerNotFound before anything is resolved when the
// request name is unbound. Events are only returned on success.
func (d *DefaultDispatcher) Dispatch(ctx context.Context, request Request) (*DispatchResult, error) {
	key, err := d.requests.Get(request.RequestName())
	if err != nil {
		return nil, err
	}

	instance, err := d.container.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}

	handler, ok := instance.(RequestHandler)
	if !ok {
		return nil, fmt.Errorf("%w: %q resolved to %T", ErrInvalidHandler, key, instance)
	}

	var events []Event
	handle := d.middleware.Wrap(func(ctx context.Context, request Request) (Response, error) {
		response, produced, err := handler.Handle(ctx, request)
		if err != nil {
			return nil, err
		}
		events = append(events, produced...)
		return response, nil
	})

	response, err := handle(ctx, request)
	if err != nil {
		return nil, err
	}

	snapshot := make([]Event, len(events))
	copy(snapshot, events)

	return &DispatchResult{
		Response: response,
		Events:   snapshot,
	}, nil
}
