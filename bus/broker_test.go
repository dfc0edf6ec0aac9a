package bus_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ose-micro/mediator"
	"github.com/ose-micro/mediator/bus"
)

type UserJoined struct {
	UserID int `json:"user_id"`
}

func (UserJoined) EventName() string { return "user.joined" }

type published struct {
	subject string
	data    []byte
}

// memoryBus delivers synchronously to subscribers on the same subject.
type memoryBus struct {
	err       error
	published []published
	handlers  map[string][]bus.MessageHandler
}

func newMemoryBus() *memoryBus {
	return &memoryBus{handlers: make(map[string][]bus.MessageHandler)}
}

func (m *memoryBus) Publish(ctx context.Context, subject string, data any) error {
	if m.err != nil {
		return m.err
	}
	payload, err := bus.Encode(data)
	if err != nil {
		return err
	}
	m.published = append(m.published, published{subject: subject, data: payload})
	for _, h := range m.handlers[subject] {
		if err := h(ctx, payload); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryBus) Subscribe(_ context.Context, subject, _ string, handler bus.MessageHandler) error {
	m.handlers[subject] = append(m.handlers[subject], handler)
	return nil
}

func (m *memoryBus) Close() error { return nil }

func TestBroker_PublishesEnvelope(t *testing.T) {
	mb := newMemoryBus()
	broker := bus.NewBroker(mb)

	require.NoError(t, broker.Publish(context.Background(), UserJoined{UserID: 7}))
	require.Len(t, mb.published, 1)
	assert.Equal(t, "events.user.joined", mb.published[0].subject)

	var msg bus.Message
	require.NoError(t, json.Unmarshal(mb.published[0].data, &msg))
	assert.Equal(t, "user.joined", msg.Name)
	assert.NotZero(t, msg.ID)
	assert.False(t, msg.PublishedAt.IsZero())
	assert.JSONEq(t, `{"user_id":7}`, string(msg.Payload))
}

func TestBroker_SubjectPrefix(t *testing.T) {
	assert.Equal(t, "meetings.user.joined", bus.NewBroker(newMemoryBus(), bus.WithSubjectPrefix("meetings")).Subject("user.joined"))
	assert.Equal(t, "user.joined", bus.NewBroker(newMemoryBus(), bus.WithSubjectPrefix("")).Subject("user.joined"))
}

func TestBroker_PublishError(t *testing.T) {
	boom := errors.New("transport down")
	mb := newMemoryBus()
	mb.err = boom

	err := bus.NewBroker(mb).Publish(context.Background(), UserJoined{})
	assert.ErrorIs(t, err, boom)
}

func TestBroker_Listen(t *testing.T) {
	mb := newMemoryBus()
	broker := bus.NewBroker(mb)

	var got []UserJoined
	require.NoError(t, broker.Listen(context.Background(), "user.joined", "", func(_ context.Context, msg bus.Message) error {
		var ev UserJoined
		if err := msg.Decode(&ev); err != nil {
			return err
		}
		got = append(got, ev)
		return nil
	}))

	require.NoError(t, broker.Publish(context.Background(), UserJoined{UserID: 1}))
	require.NoError(t, broker.Publish(context.Background(), UserJoined{UserID: 2}))
	assert.Equal(t, []UserJoined{{UserID: 1}, {UserID: 2}}, got)
}

func TestBroker_ListenDropsInvalidEnvelope(t *testing.T) {
	mb := newMemoryBus()
	broker := bus.NewBroker(mb)

	called := false
	require.NoError(t, broker.Listen(context.Background(), "user.joined", "", func(context.Context, bus.Message) error {
		called = true
		return nil
	}))

	require.NoError(t, mb.Publish(context.Background(), "events.user.joined", []byte("not json")))
	assert.False(t, called)
}

func TestBroker_WithEventEmitter(t *testing.T) {
	mb := newMemoryBus()
	emitter := mediator.NewEventEmitter(mediator.NewEventRegistry(), nil, mediator.WithMessageBroker(bus.NewBroker(mb)))

	require.NoError(t, emitter.Emit(context.Background(), UserJoined{UserID: 3}))
	require.Len(t, mb.published, 1)
	assert.Equal(t, "events.user.joined", mb.published[0].subject)
}

func TestEncode(t *testing.T) {
	raw, err := bus.Encode([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "raw", string(raw))

	encoded, err := bus.Encode(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(encoded))
}
