package middleware

import (
	"context"
	"time"

	"github.com/ose-micro/mediator"
)

// Timeout bounds the rest of the chain with a deadline. A zero or negative
// duration disables it. Handlers must honour ctx for the deadline to matter.
func Timeout(d time.Duration) mediator.MiddlewareFunc {
	return func(ctx context.Context, request mediator.Request, next mediator.HandleFunc) (mediator.Response, error) {
		if d <= 0 {
			return next(ctx, request)
		}

		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next(ctx, request)
	}
}
