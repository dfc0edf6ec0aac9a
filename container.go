package mediator

import "context"

// Container resolves handler instances by key. Instance lifetime is the
// container's concern; the dispatcher resolves once per call.
type Container interface {
	Resolve(ctx context.Context, key string) (any, error)
}

// MessageBroker receives every emitted event in addition to local handlers.
type MessageBroker interface {
	Publish(ctx context.Context, event Event) error
}
