// Package nats implements bus.Bus on NATS core subjects.
package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ose-micro/mediator/bus"
)

const tracerName = "github.com/ose-micro/mediator/bus/nats"

type natsBus struct {
	nc     *nats.Conn
	log    *zap.Logger
	tracer trace.Tracer
}

// New connects to NATS and returns a bus that owns the connection.
func New(conf Config, log *zap.Logger) (bus.Bus, error) {
	if log == nil {
		log = zap.NewNop()
	}

	nc, err := Connect(conf)
	if err != nil {
		log.Error("failed to connect to NATS", zap.String("address", conf.Address), zap.Error(err))
		return nil, err
	}

	log.Info("connected to NATS", zap.String("address", conf.Address))
	return NewWithConn(nc, log), nil
}

// NewWithConn wraps an existing connection. Close drains it.
func NewWithConn(nc *nats.Conn, log *zap.Logger) bus.Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &natsBus{
		nc:     nc,
		log:    log,
		tracer: otel.Tracer(tracerName),
	}
}

func (n *natsBus) Publish(ctx context.Context, subject string, data any) error {
	_, span := n.tracer.Start(ctx, "nats.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attribute.String("messaging.destination", subject)),
	)
	defer span.End()

	payload, err := bus.Encode(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := n.nc.Publish(subject, payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		n.log.Error("failed to publish message", zap.String("subject", subject), zap.Error(err))
		return err
	}

	n.log.Debug("published message", zap.String("subject", subject))
	return nil
}

func (n *natsBus) Subscribe(ctx context.Context, subject, queue string, handler bus.MessageHandler) error {
	cb := func(msg *nats.Msg) {
		ctx, span := n.tracer.Start(context.Background(), "nats.receive",
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(attribute.String("messaging.destination", msg.Subject)),
		)
		defer span.End()

		if err := handler(ctx, msg.Data); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			n.log.Error("handler error", zap.String("subject", msg.Subject), zap.Error(err))
		}
	}

	var (
		sub *nats.Subscription
		err error
	)
	if queue != "" {
		sub, err = n.nc.QueueSubscribe(subject, queue, cb)
	} else {
		sub, err = n.nc.Subscribe(subject, cb)
	}
	if err != nil {
		n.log.Error("failed to subscribe", zap.String("subject", subject), zap.String("queue", queue), zap.Error(err))
		return err
	}

	// Flush so the server knows about the subscription before we return.
	if err := n.nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return err
	}

	context.AfterFunc(ctx, func() {
		err := sub.Unsubscribe()
		if err == nil || errors.Is(err, nats.ErrConnectionClosed) ||
			errors.Is(err, nats.ErrConnectionDraining) || errors.Is(err, nats.ErrBadSubscription) {
			return
		}
		n.log.Warn("failed to unsubscribe", zap.String("subject", subject), zap.Error(err))
	})

	n.log.Info("subscribed to subject", zap.String("subject", subject), zap.String("queue", queue))
	return nil
}

// Close drains every subscription and then closes the connection.
func (n *natsBus) Close() error {
	return n.nc.Drain()
}
