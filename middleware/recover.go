package middleware

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/ose-micro/mediator"
)

// ErrPanic wraps panics recovered by Recover.
var ErrPanic = errors.New("middleware: handler panicked")

// Recover converts a panic further down the chain into an ErrPanic error.
func Recover(log *zap.Logger) mediator.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(ctx context.Context, request mediator.Request, next mediator.HandleFunc) (response mediator.Response, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("request handler panicked",
					zap.String("request", request.RequestName()),
					zap.Stringer("request_id", request.RequestID()),
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())),
				)
				response = nil
				err = fmt.Errorf("%w: %s: %v", ErrPanic, request.RequestName(), r)
			}
		}()
		return next(ctx, request)
	}
}
