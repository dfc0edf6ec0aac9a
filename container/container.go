// Package container is a small factory-based implementation of
// mediator.Container.
package container

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ose-micro/mediator"
)

var (
	ErrNotRegistered = errors.New("container: key not registered")
	ErrNilFactory    = errors.New("container: factory cannot be nil")
)

// Lifestyle controls how often a registered factory runs.
type Lifestyle int

const (
	// Transient builds a new instance on every Resolve.
	Transient Lifestyle = iota
	// Singleton builds the instance on first Resolve and reuses it.
	Singleton
)

// Factory builds an instance. It may resolve its own dependencies from c.
type Factory func(ctx context.Context, c *Container) (any, error)

type entry struct {
	factory   Factory
	lifestyle Lifestyle

	mu       sync.Mutex
	built    bool
	instance any
}

// Container resolves instances from registered factories. It is safe for
// concurrent use.
type Container struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

var _ mediator.Container = (*Container)(nil)

// New returns an empty container.
func New() *Container {
	return &Container{entries: make(map[string]*entry)}
}

// Register binds key to factory. Registering a key again replaces it.
func (c *Container) Register(key string, factory Factory, lifestyle Lifestyle) error {
	if factory == nil {
		return fmt.Errorf("%w: %s", ErrNilFactory, key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{factory: factory, lifestyle: lifestyle}
	return nil
}

// RegisterInstance binds key to an already built value.
func (c *Container) RegisterInstance(key string, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{
		lifestyle: Singleton,
		built:     true,
		instance:  instance,
	}
}

// Resolve builds or returns the instance registered under key. Factory errors
// are returned as-is and a failed singleton is retried on the next call.
func (c *Container) Resolve(ctx context.Context, key string) (any, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, key)
	}

	if e.lifestyle == Transient {
		return e.factory(ctx, c)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.built {
		return e.instance, nil
	}

	instance, err := e.factory(ctx, c)
	if err != nil {
		return nil, err
	}
	e.instance = instance
	e.built = true
	return instance, nil
}

// Resolve resolves key and asserts the instance type.
func Resolve[T any](ctx context.Context, c mediator.Container, key string) (T, error) {
	var zero T

	instance, err := c.Resolve(ctx, key)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("container: %s resolved to %T, want %T", key, instance, zero)
	}
	return typed, nil
}
