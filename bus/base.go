// Package bus carries emitted events to an external message broker.
package bus

import (
	"context"
)

// MessageHandler receives the raw payload of a delivered message.
type MessageHandler func(ctx context.Context, data []byte) error

// Bus is a subject-addressed publish/subscribe transport.
type Bus interface {
	Publish(ctx context.Context, subject string, data any) error
	// Subscribe delivers messages on subject to handler until ctx is done or
	// the bus is closed. Subscribers that share a non-empty queue split the
	// messages between them where the transport supports it.
	Subscribe(ctx context.Context, subject, queue string, handler MessageHandler) error
	Close() error
}
