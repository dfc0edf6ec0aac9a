package middleware_test

import (
	"context"

	"github.com/ose-micro/mediator"
)

type CreateMeetingCommand struct {
	mediator.RequestMeta
	Title    string `validate:"required"`
	Capacity int    `validate:"min=1,max=100"`
}

func (CreateMeetingCommand) RequestName() string { return "CreateMeetingCommand" }

func (c CreateMeetingCommand) Validate() error {
	if c.Title == "forbidden" {
		return errForbiddenTitle
	}
	return nil
}

type PingQuery struct {
	mediator.RequestMeta
}

func (PingQuery) RequestName() string { return "PingQuery" }

func okHandler(response mediator.Response) mediator.HandleFunc {
	return func(context.Context, mediator.Request) (mediator.Response, error) {
		return response, nil
	}
}

func errHandler(err error) mediator.HandleFunc {
	return func(context.Context, mediator.Request) (mediator.Response, error) {
		return nil, err
	}
}
