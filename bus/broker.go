package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ose-micro/mediator"
)

// DefaultSubjectPrefix is the subject prefix NewBroker uses unless
// WithSubjectPrefix overrides it.
const DefaultSubjectPrefix = "events"

// Message is the envelope an event travels in.
type Message struct {
	ID          uuid.UUID       `json:"message_id"`
	Name        string          `json:"message_name"`
	Payload     json.RawMessage `json:"payload"`
	PublishedAt time.Time       `json:"published_at"`
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	return json.Unmarshal(m.Payload, v)
}

// Broker adapts a Bus to mediator.MessageBroker. Events are published on
// "<prefix>.<event name>".
type Broker struct {
	bus    Bus
	prefix string
	log    *zap.Logger
	now    func() time.Time
}

var _ mediator.MessageBroker = (*Broker)(nil)

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithSubjectPrefix sets the subject prefix. An empty prefix publishes on the
// bare event name.
func WithSubjectPrefix(prefix string) BrokerOption {
	return func(b *Broker) {
		b.prefix = prefix
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(log *zap.Logger) BrokerOption {
	return func(b *Broker) {
		if log != nil {
			b.log = log
		}
	}
}

// NewBroker wraps bus. The bus is not closed by the broker.
func NewBroker(bus Bus, opts ...BrokerOption) *Broker {
	b := &Broker{
		bus:    bus,
		prefix: DefaultSubjectPrefix,
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subject returns the subject events named eventName are published on.
func (b *Broker) Subject(eventName string) string {
	if b.prefix == "" {
		return eventName
	}
	return b.prefix + "." + eventName
}

// Publish wraps event in a Message and publishes it on its subject.
func (b *Broker) Publish(ctx context.Context, event mediator.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.EventName(), err)
	}

	msg := Message{
		ID:          uuid.New(),
		Name:        event.EventName(),
		Payload:     payload,
		PublishedAt: b.now().UTC(),
	}

	subject := b.Subject(msg.Name)
	if err := b.bus.Publish(ctx, subject, msg); err != nil {
		return err
	}

	b.log.Debug("event forwarded",
		zap.String("subject", subject),
		zap.Stringer("message_id", msg.ID),
	)
	return nil
}

// Listen subscribes to events named eventName and hands decoded envelopes to
// handler. Messages that are not valid envelopes are logged and dropped.
func (b *Broker) Listen(ctx context.Context, eventName, queue string, handler func(ctx context.Context, msg Message) error) error {
	subject := b.Subject(eventName)

	return b.bus.Subscribe(ctx, subject, queue, func(ctx context.Context, data []byte) error {
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			b.log.Error("invalid message envelope",
				zap.String("subject", subject),
				zap.ByteString("raw", data),
				zap.Error(err),
			)
			return nil
		}
		return handler(ctx, msg)
	})
}

// Encode marshals data for the wire. Byte slices pass through untouched.
func Encode(data any) ([]byte, error) {
	switch v := data.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(v)
	}
}
