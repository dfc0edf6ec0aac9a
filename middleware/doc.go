// Package middleware provides stock mediator.Middleware implementations:
// logging, panic recovery, timeouts, tracing, metrics, validation, circuit
// breaking and rate limiting.
//
// Middleware added first to a mediator.MiddlewareChain runs outermost, so a
// typical chain is
//
//	Recover → Logging → Tracing → Metrics → Validation → handler
package middleware
