// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds server and storage settings read from environment variables,
// falling back to sensible local-development defaults.
type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	DataDir         string        `env:"CONVENE_DATA_DIR" envDefault:"data"`
	DataFile        string        `env:"CONVENE_DATA_FILE" envDefault:"convene_data.txt"`
	LogLevel        string        `env:"CONVENE_LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"CONVENE_LOG_FORMAT" envDefault:"text"`
	ShutdownTimeout time.Duration `env:"CONVENE_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	switch {
	case c.DataFile == "":
		return fmt.Errorf("data file name is required")
	case filepath.Base(c.DataFile) != c.DataFile:
		return fmt.Errorf("data file %q must be a bare file name; use the data dir for paths", c.DataFile)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

// DataPath returns the full path of the persistence file.
func (c Config) DataPath() string {
	return filepath.Join(c.DataDir, c.DataFile)
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}
