// Package rabbit implements bus.Bus on a RabbitMQ exchange. Subjects are
// routing keys.
package rabbit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ose-micro/mediator/bus"
)

const tracerName = "github.com/ose-micro/mediator/bus/rabbit"

type rabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  Config
	log     *zap.Logger
	tracer  trace.Tracer

	mu sync.Mutex // amqp.Channel is not safe for concurrent publishes
}

// New dials RabbitMQ, retrying up to cfg.MaxReconnects times, and declares
// the exchange.
func New(ctx context.Context, cfg Config, log *zap.Logger) (bus.Bus, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg.setDefaults()

	log.Info("connecting to RabbitMQ", zap.String("exchange", cfg.Exchange))

	conn, err := dial(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Error("failed to open channel", zap.Error(err))
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Error("failed to declare exchange", zap.String("exchange", cfg.Exchange), zap.Error(err))
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.Info("RabbitMQ ready", zap.String("exchange", cfg.Exchange))

	return &rabbitMQ{
		conn:    conn,
		channel: ch,
		config:  cfg,
		log:     log,
		tracer:  otel.Tracer(tracerName),
	}, nil
}

func dial(ctx context.Context, cfg Config, log *zap.Logger) (*amqp.Connection, error) {
	for attempt := 0; ; attempt++ {
		conn, err := amqp.Dial(cfg.URL)
		if err == nil {
			return conn, nil
		}
		if attempt >= cfg.MaxReconnects {
			log.Error("failed to dial RabbitMQ", zap.Int("attempts", attempt+1), zap.Error(err))
			return nil, fmt.Errorf("dial: %w", err)
		}

		log.Warn("retrying RabbitMQ connection", zap.Duration("backoff", cfg.ReconnectBackoff), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.ReconnectBackoff):
		}
	}
}

func (r *rabbitMQ) Publish(ctx context.Context, subject string, data any) error {
	_, span := r.tracer.Start(ctx, "rabbitmq.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.destination", r.config.Exchange),
			attribute.String("messaging.rabbitmq.routing_key", subject),
		),
	)
	defer span.End()

	body, err := bus.Encode(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("marshal: %w", err)
	}

	r.mu.Lock()
	err = r.channel.Publish(
		r.config.Exchange,
		subject,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
	r.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.Error("failed to publish message", zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("publish: %w", err)
	}

	r.log.Debug("published message", zap.String("subject", subject), zap.String("exchange", r.config.Exchange))
	return nil
}

// Subscribe binds queue to subject and consumes it with manual acks. An empty
// queue asks the server for an exclusive, auto-deleted queue. Handler errors
// requeue the delivery. Cancelling ctx cancels the consumer.
func (r *rabbitMQ) Subscribe(ctx context.Context, subject, queue string, handler bus.MessageHandler) error {
	durable, autoDelete, exclusive := true, false, false
	if queue == "" {
		durable, autoDelete, exclusive = false, true, true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	q, err := r.channel.QueueDeclare(queue, durable, autoDelete, exclusive, false, nil)
	if err != nil {
		r.log.Error("failed to declare queue", zap.String("queue", queue), zap.Error(err))
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := r.channel.QueueBind(q.Name, subject, r.config.Exchange, false, nil); err != nil {
		r.log.Error("failed to bind queue", zap.String("queue", q.Name), zap.Error(err))
		return fmt.Errorf("bind queue: %w", err)
	}

	consumerTag := fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	msgs, err := r.channel.Consume(
		q.Name,
		consumerTag,
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		r.log.Error("failed to consume messages", zap.String("queue", q.Name), zap.Error(err))
		return fmt.Errorf("consume: %w", err)
	}

	go r.consume(q.Name, msgs, handler)

	context.AfterFunc(ctx, func() {
		r.mu.Lock()
		err := r.channel.Cancel(consumerTag, false)
		r.mu.Unlock()
		if err != nil && !errors.Is(err, amqp.ErrClosed) {
			r.log.Warn("failed to cancel consumer", zap.String("tag", consumerTag), zap.Error(err))
		}
	})

	r.log.Info("subscription started",
		zap.String("subject", subject),
		zap.String("queue", q.Name),
		zap.String("tag", consumerTag),
	)
	return nil
}

func (r *rabbitMQ) consume(queue string, msgs <-chan amqp.Delivery, handler bus.MessageHandler) {
	for d := range msgs {
		ctx, span := r.tracer.Start(context.Background(), "rabbitmq.receive",
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(attribute.String("messaging.rabbitmq.routing_key", d.RoutingKey)),
		)

		if err := handler(ctx, d.Body); err != nil {
			r.log.Error("handler error", zap.String("queue", queue), zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			_ = d.Nack(false, true)
			span.End()
			continue
		}

		_ = d.Ack(false)
		span.End()
	}

	r.log.Warn("consumer closed", zap.String("queue", queue))
}

func (r *rabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		r.log.Warn("failed to close channel", zap.Error(err))
	}
	if err := r.conn.Close(); err != nil {
		r.log.Warn("failed to close connection", zap.Error(err))
		return err
	}
	return nil
}
