package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ose-micro/mediator"
	"github.com/ose-micro/mediator/middleware"
)

// BuildChain assembles the middleware chain conf enables, outermost first:
// recover, logging, tracing, metrics, validation, timeout, rate limit, circuit
// breaker. Rejected input never reaches the breaker, so it cannot trip it.
// reg is only used when metrics are enabled.
func BuildChain(conf MiddlewareConfig, log *zap.Logger, reg prometheus.Registerer) (*mediator.MiddlewareChain, error) {
	level, err := ParseLevel(conf.LogLevel)
	if err != nil {
		return nil, err
	}

	chain := mediator.NewMiddlewareChain()
	if conf.Recover {
		chain.Add(middleware.Recover(log))
	}
	chain.Add(middleware.Logging(log, level))
	if conf.Tracing {
		chain.Add(middleware.Tracing())
	}
	if conf.Metrics {
		chain.Add(middleware.NewMetrics(reg, "mediator").Middleware())
	}
	if conf.Validation {
		chain.Add(middleware.Validation(validator.New()))
	}
	if conf.Timeout > 0 {
		chain.Add(middleware.Timeout(conf.Timeout))
	}
	if conf.RateLimit > 0 {
		burst := conf.RateBurst
		if burst < 1 {
			burst = 1
		}
		chain.Add(middleware.RateLimit(rate.NewLimiter(rate.Limit(conf.RateLimit), burst)))
	}
	if conf.Breaker.Enabled {
		threshold := conf.Breaker.ConsecutiveFailures
		chain.Add(middleware.CircuitBreaker(gobreaker.Settings{
			MaxRequests: conf.Breaker.MaxRequests,
			Interval:    conf.Breaker.Interval,
			Timeout:     conf.Breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
		}))
	}
	return chain, nil
}
