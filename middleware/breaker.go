package middleware

import (
	"context"
	"sync"

	"github.com/sony/gobreaker/v2"

	"github.com/ose-micro/mediator"
)

// CircuitBreaker keeps one breaker per request name. While a breaker is open
// requests fail with gobreaker.ErrOpenState without reaching the handler.
// settings.Name is ignored and replaced with the request name.
func CircuitBreaker(settings gobreaker.Settings) mediator.MiddlewareFunc {
	var (
		mu       sync.Mutex
		breakers = make(map[string]*gobreaker.CircuitBreaker[mediator.Response])
	)

	breakerFor := func(name string) *gobreaker.CircuitBreaker[mediator.Response] {
		mu.Lock()
		defer mu.Unlock()

		if cb, ok := breakers[name]; ok {
			return cb
		}
		s := settings
		s.Name = name
		cb := gobreaker.NewCircuitBreaker[mediator.Response](s)
		breakers[name] = cb
		return cb
	}

	return func(ctx context.Context, request mediator.Request, next mediator.HandleFunc) (mediator.Response, error) {
		return breakerFor(request.RequestName()).Execute(func() (mediator.Response, error) {
			return next(ctx, request)
		})
	}
}
