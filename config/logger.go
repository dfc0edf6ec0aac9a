package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger for conf.
func NewLogger(conf LoggerConfig) (*zap.Logger, error) {
	level, err := ParseLevel(conf.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewDevelopmentConfig()
	if conf.Environment == "production" {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}

// ParseLevel parses a zap level name such as "debug" or "warn".
func ParseLevel(text string) (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return level, fmt.Errorf("parse log level %q: %w", text, err)
	}
	return level, nil
}
