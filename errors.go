package mediator

import "errors"

var (
	ErrHandlerNotFound    = errors.New("mediator: request handler not found")
	ErrInvalidHandler     = errors.New("mediator: resolved instance is not a handler")
	ErrUnexpectedRequest  = errors.New("mediator: unexpected request type")
	ErrUnexpectedEvent    = errors.New("mediator: unexpected event type")
	ErrUnexpectedResponse = errors.New("mediator: unexpected response type")
)
