// Package config loads service configuration from an optional YAML file and
// CALC_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"keypad-calc/internal/calc"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Engine        EngineConfig        `yaml:"engine"`
	Store         StoreConfig         `yaml:"store"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type EngineConfig struct {
	// MaxDigits caps how many digits a user may type per operand.
	MaxDigits int `yaml:"max_digits"`
}

type StoreConfig struct {
	// Path of the SQLite keystroke journal. ":memory:" keeps sessions for
	// the lifetime of the process only.
	Path string `yaml:"path"`
}

type ObservabilityConfig struct {
	ServiceName string `yaml:"service_name"`
	LogLevel    string `yaml:"log_level"`
	// OTLP enables trace, metric and log export over OTLP/HTTP. The
	// exporters read the standard OTEL_EXPORTER_OTLP_* variables.
	OTLP bool `yaml:"otlp"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
		Engine: EngineConfig{MaxDigits: calc.DefaultMaxDigits},
		Store:  StoreConfig{Path: "calc.db"},
		Observability: ObservabilityConfig{
			ServiceName: "keypad-calc",
			LogLevel:    "info",
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("CALC_ADDR"); ok {
		cfg.Server.Addr = v
	}
	if v, ok := lookup("CALC_DB"); ok {
		cfg.Store.Path = v
	}
	if v, ok := lookup("CALC_LOG_LEVEL"); ok {
		cfg.Observability.LogLevel = v
	}
	if v, ok := lookup("OTEL_SERVICE_NAME"); ok && v != "" {
		cfg.Observability.ServiceName = v
	}
	if v, ok := lookup("CALC_MAX_DIGITS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CALC_MAX_DIGITS: %w", err)
		}
		cfg.Engine.MaxDigits = n
	}
	if v, ok := lookup("CALC_OTLP"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CALC_OTLP: %w", err)
		}
		cfg.Observability.OTLP = b
	}
	if v, ok := lookup("CALC_SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CALC_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if c.Engine.MaxDigits < 1 || c.Engine.MaxDigits > calc.Precision {
		return fmt.Errorf("engine.max_digits must be between 1 and %d, got %d", calc.Precision, c.Engine.MaxDigits)
	}
	if c.Store.Path == "" {
		return errors.New("store.path must not be empty")
	}
	switch c.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("observability.log_level %q must be one of debug, info, warn, error", c.Observability.LogLevel)
	}
	return nil
}
