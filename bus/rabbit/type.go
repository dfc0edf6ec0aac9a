package rabbit

import "time"

// Config describes a RabbitMQ connection and the exchange events go to.
type Config struct {
	URL          string `mapstructure:"url" validate:"required"`
	Exchange     string `mapstructure:"exchange" default:"ose.exchange"`
	ExchangeType string `mapstructure:"exchange_type" default:"topic"`
	// ReconnectBackoff is the pause between dial attempts.
	ReconnectBackoff time.Duration `mapstructure:"reconnect_backoff" default:"5s"`
	// MaxReconnects bounds dial attempts; zero means a single attempt.
	MaxReconnects int `mapstructure:"max_reconnects"`
}

func (c *Config) setDefaults() {
	if c.Exchange == "" {
		c.Exchange = "ose.exchange"
	}
	if c.ExchangeType == "" {
		c.ExchangeType = "topic"
	}
	if c.ReconnectBackoff <= 0 {
		c.ReconnectBackoff = 5 * time.Second
	}
}
