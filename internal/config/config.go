// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package config loads the configuration for the refresher daemon.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	// ErrInvalid indicates that a configuration failed validation.
	ErrInvalid = errors.New("invalid configuration")
)

// Target describes the remote resource the daemon refreshes.
type Target struct {
	// URL is the absolute http or https URL to poll.
	URL string `yaml:"url" validate:"required,http_url"`

	// Timeout bounds each individual request. If zero, no timeout
	// beyond the cycle's context is applied.
	Timeout time.Duration `yaml:"timeout" validate:"min=0s"`
}

// Log configures the daemon's zap logger.
type Log struct {
	Level  string `yaml:"level"  validate:"required,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"required,oneof=json text"`
}

// Tracing configures OTLP span export.
type Tracing struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint" validate:"required_if=Enabled true"`
	Insecure bool   `yaml:"insecure"`
}

// Config is the complete daemon configuration.
type Config struct {
	// Name labels the updater in logs, state, and metrics.
	Name string `yaml:"name" validate:"required"`

	// Interval is the refresh interval.
	Interval time.Duration `yaml:"interval" validate:"min=1ms"`

	// StopTimeout bounds how long shutdown waits on an in-flight refresh.
	StopTimeout time.Duration `yaml:"stopTimeout" validate:"min=1ms"`

	// ThrottleMargin is the slack applied to the throttle window. Zero disables it.
	ThrottleMargin time.Duration `yaml:"throttleMargin" validate:"min=0s"`

	// Listen is the address of the status and metrics server.
	Listen string `yaml:"listen" validate:"required"`

	// Metadata is attached to the updater's state and logs.
	Metadata map[string]string `yaml:"metadata"`

	Target  Target  `yaml:"target"`
	Log     Log     `yaml:"log"`
	Tracing Tracing `yaml:"tracing"`
}

// Default returns a Config with every default applied. Target.URL has no default.
func Default() Config {
	return Config{
		Name:           "refresher",
		Interval:       time.Minute,
		StopTimeout:    10 * time.Second,
		ThrottleMargin: 50 * time.Millisecond,
		Listen:         ":8080",
		Target: Target{
			Timeout: 10 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks this configuration against its struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return nil
}

// Load reads the YAML file at path on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config from %q: %w", path, err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse config from %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed for %q: %w", path, err)
	}

	return &cfg, nil
}
