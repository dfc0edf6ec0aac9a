package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ose-micro/mediator"
	"github.com/ose-micro/mediator/bus"
	"github.com/ose-micro/mediator/bus/nats"
	"github.com/ose-micro/mediator/bus/rabbit"
	"github.com/ose-micro/mediator/bus/redis"
)

// OpenBus connects the transport conf selects. It returns nil for BrokerNone.
func OpenBus(ctx context.Context, conf BrokerConfig, log *zap.Logger) (bus.Bus, error) {
	switch conf.Kind {
	case BrokerNone, "":
		return nil, nil
	case BrokerNats:
		return nats.New(conf.Nats, log)
	case BrokerRabbit:
		return rabbit.New(ctx, conf.Rabbit, log)
	case BrokerRedis:
		return redis.New(ctx, conf.Redis, log)
	default:
		return nil, fmt.Errorf("unknown broker kind %q", conf.Kind)
	}
}

// EmitterOptions returns the emitter options for b; none when b is nil.
func EmitterOptions(conf BrokerConfig, b bus.Bus, log *zap.Logger) []mediator.EmitterOption {
	if b == nil {
		return nil
	}
	broker := bus.NewBroker(b, bus.WithSubjectPrefix(conf.SubjectPrefix), bus.WithLogger(log))
	return []mediator.EmitterOption{mediator.WithMessageBroker(broker)}
}
