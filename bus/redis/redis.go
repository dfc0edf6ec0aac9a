// Package redis implements bus.Bus on Redis pub/sub. Pub/sub has no consumer
// groups, so the queue argument to Subscribe is ignored and every subscriber
// receives every message.
package redis

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ose-micro/mediator/bus"
)

const tracerName = "github.com/ose-micro/mediator/bus/redis"

// Config describes a Redis connection.
type Config struct {
	Address  string `mapstructure:"address" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type redisBus struct {
	client    redis.UniversalClient
	ownClient bool
	log       *zap.Logger
	tracer    trace.Tracer

	mu      sync.Mutex
	pubsubs []*redis.PubSub
	wg      sync.WaitGroup
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config, log *zap.Logger) (bus.Bus, error) {
	if log == nil {
		log = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		log.Error("failed to connect to Redis", zap.String("address", cfg.Address), zap.Error(err))
		return nil, fmt.Errorf("ping: %w", err)
	}

	log.Info("connected to Redis", zap.String("address", cfg.Address))
	b := newBus(client, log)
	b.ownClient = true
	return b, nil
}

// NewWithClient wraps an existing client. Close leaves the client open.
func NewWithClient(client redis.UniversalClient, log *zap.Logger) bus.Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return newBus(client, log)
}

func newBus(client redis.UniversalClient, log *zap.Logger) *redisBus {
	return &redisBus{
		client: client,
		log:    log,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *redisBus) Publish(ctx context.Context, subject string, data any) error {
	ctx, span := r.tracer.Start(ctx, "redis.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attribute.String("messaging.destination", subject)),
	)
	defer span.End()

	payload, err := bus.Encode(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("marshal: %w", err)
	}

	if err := r.client.Publish(ctx, subject, payload).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.Error("failed to publish message", zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("publish: %w", err)
	}

	r.log.Debug("published message", zap.String("subject", subject))
	return nil
}

func (r *redisBus) Subscribe(ctx context.Context, subject, _ string, handler bus.MessageHandler) error {
	ps := r.client.Subscribe(ctx, subject)

	// Wait for the subscription confirmation so no message published after
	// Subscribe returns is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		r.log.Error("failed to subscribe", zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("subscribe: %w", err)
	}

	r.mu.Lock()
	r.pubsubs = append(r.pubsubs, ps)
	r.mu.Unlock()

	context.AfterFunc(ctx, func() {
		if r.release(ps) {
			_ = ps.Close()
		}
	})

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for msg := range ps.Channel() {
			ctx, span := r.tracer.Start(context.Background(), "redis.receive",
				trace.WithSpanKind(trace.SpanKindConsumer),
				trace.WithAttributes(attribute.String("messaging.destination", msg.Channel)),
			)
			if err := handler(ctx, []byte(msg.Payload)); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				r.log.Error("handler error", zap.String("subject", msg.Channel), zap.Error(err))
			}
			span.End()
		}
	}()

	r.log.Info("subscribed to subject", zap.String("subject", subject))
	return nil
}

// release forgets ps and reports whether it was still open.
func (r *redisBus) release(ps *redis.PubSub) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.Index(r.pubsubs, ps)
	if i < 0 {
		return false
	}
	r.pubsubs = slices.Delete(r.pubsubs, i, i+1)
	return true
}

func (r *redisBus) Close() error {
	r.mu.Lock()
	pubsubs := r.pubsubs
	r.pubsubs = nil
	r.mu.Unlock()

	for _, ps := range pubsubs {
		if err := ps.Close(); err != nil {
			r.log.Warn("failed to close subscription", zap.Error(err))
		}
	}
	r.wg.Wait()

	if r.ownClient {
		return r.client.Close()
	}
	return nil
}
