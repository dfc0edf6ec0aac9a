package middleware

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/ose-micro/mediator"
)

// RateLimit waits for a token from limiter before continuing. The wait is
// bounded by ctx.
func RateLimit(limiter *rate.Limiter) mediator.MiddlewareFunc {
	return func(ctx context.Context, request mediator.Request, next mediator.HandleFunc) (mediator.Response, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return next(ctx, request)
	}
}
