// Package logger builds the structured logger used throughout the engine,
// segment manager, index and compaction packages. Every component accepts a
// *zap.SugaredLogger through its Config struct rather than constructing one
// itself, so applications embedding the store can plug in their own zap
// configuration by calling New once at startup.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option customizes the logger returned by New.
type Option func(*zap.Config)

// WithLevel overrides the minimum enabled log level. Defaults to Info.
func WithLevel(level zapcore.Level) Option {
	return func(c *zap.Config) {
		c.Level = zap.NewAtomicLevelAt(level)
	}
}

// WithDevelopment switches to zap's human-readable console encoding, useful
// for local debugging of the CLI demo.
func WithDevelopment() Option {
	return func(c *zap.Config) {
		*c = zap.NewDevelopmentConfig()
	}
}

// New builds a production-configured zap SugaredLogger tagged with the given
// service name. It panics only if zap itself fails to build, which happens
// only for invalid configuration, never at runtime.
func New(service string, opts ...Option) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	for _, opt := range opts {
		opt(&cfg)
	}

	log, err := cfg.Build(zap.Fields(zap.String("service", service)))
	if err != nil {
		// cfg.Build only fails for malformed configuration (bad encoder
		// name, bad output path); both are programmer errors caught
		// immediately in development, never a runtime condition.
		panic("logger: failed to build zap logger: " + err.Error())
	}

	return log.Sugar()
}
