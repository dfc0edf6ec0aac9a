package mediator

import (
	"context"
	"sync"
)

// HandleFunc is a continuation in the middleware pipeline.
type HandleFunc func(ctx context.Context, request Request) (Response, error)

// Middleware wraps a handler invocation. It is responsible for calling next;
// it may skip it or call it more than once.
type Middleware interface {
	Handle(ctx context.Context, request Request, next HandleFunc) (Response, error)
}

// MiddlewareFunc adapts a function to a Middleware.
type MiddlewareFunc func(ctx context.Context, request Request, next HandleFunc) (Response, error)

func (f MiddlewareFunc) Handle(ctx context.Context, request Request, next HandleFunc) (Response, error) {
	return f(ctx, request, next)
}

// MiddlewareChain is an ordered list of middleware. The first one added is
// the outermost wrapper.
type MiddlewareChain struct {
	mu    sync.RWMutex
	chain []Middleware
}

// NewMiddlewareChain returns a chain holding middlewares in order.
func NewMiddlewareChain(middlewares ...Middleware) *MiddlewareChain {
	c := &MiddlewareChain{}
	c.Set(middlewares)
	return c
}

// Set replaces the chain.
func (c *MiddlewareChain) Set(middlewares []Middleware) {
	chain := make([]Middleware, len(middlewares))
	copy(chain, middlewares)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.chain = chain
}

// Add appends middleware as the new innermost wrapper.
func (c *MiddlewareChain) Add(middleware Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chain = append(c.chain, middleware)
}

func (c *MiddlewareChain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.chain)
}

// Wrap composes the chain around handle. For middleware added as [M1, M2, M3]
// the call order is M1 → M2 → M3 → handle and results travel back in reverse.
func (c *MiddlewareChain) Wrap(handle HandleFunc) HandleFunc {
	c.mu.RLock()
	chain := make([]Middleware, len(c.chain))
	copy(chain, c.chain)
	c.mu.RUnlock()

	for i := len(chain) - 1; i >= 0; i-- {
		mw := chain[i]
		next := handle
		handle = func(ctx context.Context, request Request) (Response, error) {
			return mw.Handle(ctx, request, next)
		}
	}
	return handle
}
