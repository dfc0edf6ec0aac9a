package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ose-micro/mediator/bus"
)

type MeetingClosed struct {
	MeetingID int `json:"meeting_id"`
}

func (MeetingClosed) EventName() string { return "meeting.closed" }

func newTestBus(t *testing.T) (bus.Bus, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	b, err := New(context.Background(), Config{Address: mr.Addr()}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b, mr
}

func TestRedisPublishSubscribe(t *testing.T) {
	b, _ := newTestBus(t)

	received := make(chan string, 1)
	require.NoError(t, b.Subscribe(context.Background(), "meetings", "", func(_ context.Context, data []byte) error {
		received <- string(data)
		return nil
	}))

	require.NoError(t, b.Publish(context.Background(), "meetings", map[string]int{"meeting_id": 1}))

	select {
	case data := <-received:
		assert.JSONEq(t, `{"meeting_id":1}`, data)
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestRedisSubscriptionEndsWithContext(t *testing.T) {
	b, mr := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, b.Subscribe(ctx, "meetings", "", func(context.Context, []byte) error {
		return nil
	}))
	require.Equal(t, 1, mr.PubSubNumSub("meetings")["meetings"])

	cancel()

	assert.Eventually(t, func() bool {
		return mr.PubSubNumSub("meetings")["meetings"] == 0
	}, time.Second, 10*time.Millisecond)
}

func TestRedisFanOut(t *testing.T) {
	b, _ := newTestBus(t)

	var wg sync.WaitGroup
	wg.Add(2)
	handler := func(context.Context, []byte) error {
		wg.Done()
		return nil
	}
	require.NoError(t, b.Subscribe(context.Background(), "meetings", "ignored", handler))
	require.NoError(t, b.Subscribe(context.Background(), "meetings", "ignored", handler))

	require.NoError(t, b.Publish(context.Background(), "meetings", []byte("raw")))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("not every subscriber received the message")
	}
}

func TestRedisBrokerEnvelope(t *testing.T) {
	b, _ := newTestBus(t)
	broker := bus.NewBroker(b)

	received := make(chan bus.Message, 1)
	require.NoError(t, broker.Listen(context.Background(), "meeting.closed", "", func(_ context.Context, msg bus.Message) error {
		received <- msg
		return nil
	}))

	require.NoError(t, broker.Publish(context.Background(), MeetingClosed{MeetingID: 4}))

	select {
	case msg := <-received:
		assert.Equal(t, "meeting.closed", msg.Name)
		assert.NotZero(t, msg.ID)
		var ev MeetingClosed
		require.NoError(t, msg.Decode(&ev))
		assert.Equal(t, 4, ev.MeetingID)
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestRedisNewWithClientLeavesClientOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	b := NewWithClient(client, nil)
	require.NoError(t, b.Close())

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestRedisConnectFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = New(context.Background(), Config{Address: addr}, nil)
	assert.Error(t, err)
}
