// Package mediator routes typed requests to a single handler through a
// middleware pipeline and delivers the domain events the handler produced.
package mediator

import "github.com/google/uuid"

// Request is a command or query submitted to the mediator. RequestName is
// the exact-type tag used by the request registry.
type Request interface {
	RequestName() string
	RequestID() uuid.UUID
}

// Response is whatever a handler returns. Commands usually return nil.
type Response any

// Event is a domain event produced while handling a request.
type Event interface {
	EventName() string
}

// Command is a request that changes state. Validate is called by the
// validation middleware before the handler runs.
type Command interface {
	Request
	Validate() error
}

// Query is a request that only reads state.
type Query interface {
	Request
}

// RequestMeta carries the request identifier. Embed it in request structs.
type RequestMeta struct {
	ID uuid.UUID `json:"request_id" mapstructure:"request_id"`
}

// NewRequestMeta returns metadata with a freshly generated identifier.
func NewRequestMeta() RequestMeta {
	return RequestMeta{ID: uuid.New()}
}

func (m RequestMeta) RequestID() uuid.UUID {
	return m.ID
}
