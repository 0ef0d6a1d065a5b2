// Package config loads command configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable the commands read.
const EnvPrefix = "ROLLABLE_"

// ParseEnv loads configuration from environment variables. Field tags name
// the variable without EnvPrefix: `env:"TABLES"` reads ROLLABLE_TABLES.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
