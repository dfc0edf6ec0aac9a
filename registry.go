package mediator

import (
	"fmt"
	"reflect"
	"sync"
)

// RequestRegistry maps a request name to exactly one handler key.
type RequestRegistry struct {
	mu       sync.RWMutex
	handlers map[string]string
}

func NewRequestRegistry() *RequestRegistry {
	return &RequestRegistry{handlers: make(map[string]string)}
}

// Bind registers the handler key for a request name. A later bind for the
// same name replaces the earlier one.
func (r *RequestRegistry) Bind(requestName, handlerKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[requestName] = handlerKey
}

// Get returns the handler key bound to requestName or an error wrapping
// ErrHandlerNotFound.
func (r *RequestRegistry) Get(requestName string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.handlers[requestName]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrHandlerNotFound, requestName)
	}
	return key, nil
}

// BindRequest binds the request type R. For a pointer type the name is read
// from a freshly allocated value, so value receivers work too.
func BindRequest[R Request](r *RequestRegistry, handlerKey string) {
	r.Bind(tagged[R]().RequestName(), handlerKey)
}

// EventRegistry maps an event name to an ordered list of handler keys.
type EventRegistry struct {
	mu       sync.RWMutex
	handlers map[string][]string
	order    []string
}

func NewEventRegistry() *EventRegistry {
	return &EventRegistry{handlers: make(map[string][]string)}
}

// Bind appends a handler key for the event name. Duplicates are kept.
func (r *EventRegistry) Bind(eventName, handlerKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[eventName]; !ok {
		r.order = append(r.order, eventName)
	}
	r.handlers[eventName] = append(r.handlers[eventName], handlerKey)
}

// Get returns the handler keys bound to exactly this event name, in
// registration order.
func (r *EventRegistry) Get(eventName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := r.handlers[eventName]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// Events returns the names of all events with at least one binding.
func (r *EventRegistry) Events() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// BindEvent binds the event type E, named the same way as in BindRequest.
func BindEvent[E Event](r *EventRegistry, handlerKey string) {
	r.Bind(tagged[E]().EventName(), handlerKey)
}

// tagged returns a value of T whose tag method is safe to call.
func tagged[T any]() T {
	if t := reflect.TypeFor[T](); t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface().(T)
	}
	var zero T
	return zero
}
