// Package logging builds the zap loggers used by court binaries.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the level and encoding of a logger.
type Config struct {
	Level  string `env:"DECICOURT_LOG_LEVEL" envDefault:"info"`
	Format string `env:"DECICOURT_LOG_FORMAT" envDefault:"json"`
}

// New builds a logger for service. Format "console" selects the development
// encoder; anything else produces JSON lines.
func New(service string, cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "console") {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.DisableStacktrace = true

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	if service != "" {
		logger = logger.With(zap.String("service", service))
	}
	return logger, nil
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
