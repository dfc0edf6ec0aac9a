package mediator_test

import (
	"context"
	"sync"

	"github.com/ose-micro/mediator"
	"github.com/ose-micro/mediator/container"
)

type JoinMeetingCommand struct {
	mediator.RequestMeta
	MeetingID int
	UserID    int
}

func (JoinMeetingCommand) RequestName() string { return "JoinMeetingCommand" }

type ReadMeetingQuery struct {
	mediator.RequestMeta
	MeetingID int
	Second    string
	Third     string
}

func (*ReadMeetingQuery) RequestName() string { return "ReadMeetingQuery" }

type ReadMeetingResult struct {
	MeetingID int
	Second    string
	Third     string
}

type UnboundQuery struct {
	mediator.RequestMeta
}

func (UnboundQuery) RequestName() string { return "UnboundQuery" }

type UserJoined struct {
	MeetingID int
	UserID    int
}

func (UserJoined) EventName() string { return "UserJoined" }

type UserLeft struct {
	UserID int
}

func (UserLeft) EventName() string { return "UserLeft" }

// AdminJoined embeds UserJoined but carries its own tag.
type AdminJoined struct {
	UserJoined
}

func (AdminJoined) EventName() string { return "AdminJoined" }

// recorder collects a trace of calls across goroutine-safe appends.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) trace() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

func recordingEventHandler(rec *recorder, name string) mediator.EventHandler {
	return mediator.EventHandlerFunc(func(_ context.Context, event mediator.Event) error {
		rec.record(name + ":" + event.EventName())
		return nil
	})
}

func tracingMiddleware(rec *recorder, name string) mediator.Middleware {
	return mediator.MiddlewareFunc(func(ctx context.Context, request mediator.Request, next mediator.HandleFunc) (mediator.Response, error) {
		rec.record(name + "-before")
		response, err := next(ctx, request)
		rec.record(name + "-after")
		return response, err
	})
}

func transient(handler any) container.Factory {
	return func(context.Context, *container.Container) (any, error) {
		return handler, nil
	}
}

func mustRegister(c *container.Container, key string, factory container.Factory) {
	if err := c.Register(key, factory, container.Transient); err != nil {
		panic(err)
	}
}
