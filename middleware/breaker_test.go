package middleware_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"

	"github.com/ose-micro/mediator"
	mw "github.com/ose-micro/mediator/middleware"
)

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	m := mw.CircuitBreaker(gobreaker.Settings{
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	})
	boom := errors.New("downstream unavailable")

	calls := 0
	failing := func(context.Context, mediator.Request) (mediator.Response, error) {
		calls++
		return nil, boom
	}

	_, err := m(context.Background(), PingQuery{}, failing)
	assert.ErrorIs(t, err, boom)
	_, err = m(context.Background(), PingQuery{}, failing)
	assert.ErrorIs(t, err, boom)

	_, err = m(context.Background(), PingQuery{}, failing)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, calls)
}

func TestCircuitBreaker_PerRequestName(t *testing.T) {
	m := mw.CircuitBreaker(gobreaker.Settings{
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
	})

	_, _ = m(context.Background(), PingQuery{}, errHandler(errors.New("x")))
	_, err := m(context.Background(), PingQuery{}, okHandler(nil))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	response, err := m(context.Background(), CreateMeetingCommand{}, okHandler("ok"))
	assert.NoError(t, err)
	assert.Equal(t, "ok", response)
}
