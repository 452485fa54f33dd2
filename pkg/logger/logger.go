// Package logger owns the process-wide zap logger. Components take
// children via Named instead of carrying their own configuration.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var base *zap.Logger

// Init builds the process logger. "production" selects JSON output at
// info level; anything else selects colored console output at debug.
func Init(env string) error {
	log, err := newConfig(env).Build()
	if err != nil {
		return err
	}
	base = log
	return nil
}

func newConfig(env string) zap.Config {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// Get returns the process logger. Before Init it hands out a development
// logger so early failures and tests still produce output.
func Get() *zap.Logger {
	if base == nil {
		fallback, _ := zap.NewDevelopment()
		return fallback
	}
	return base
}

// Named returns a child of the process logger tagged with a component
// name.
func Named(component string) *zap.Logger {
	return Get().Named(component)
}

// Sync flushes buffered entries on shutdown.
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}
