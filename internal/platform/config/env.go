// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses a fresh T from the environment.
func Load[T any]() (T, error) {
	var cfg T
	if err := ParseEnv(&cfg); err != nil {
		var zero T
		return zero, err
	}
	return cfg, nil
}
