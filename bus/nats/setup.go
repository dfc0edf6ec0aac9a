package nats

import (
	"time"

	"github.com/nats-io/nats.go"
)

// Config describes a NATS connection.
type Config struct {
	Address       string        `mapstructure:"address" validate:"required"`
	Name          string        `mapstructure:"name"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

// Connect dials the server described by conf.
func Connect(conf Config) (*nats.Conn, error) {
	opts := []nats.Option{}
	if conf.Name != "" {
		opts = append(opts, nats.Name(conf.Name))
	}
	if conf.MaxReconnects != 0 {
		opts = append(opts, nats.MaxReconnects(conf.MaxReconnects))
	}
	if conf.ReconnectWait > 0 {
		opts = append(opts, nats.ReconnectWait(conf.ReconnectWait))
	}
	return nats.Connect(conf.Address, opts...)
}
