package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  shutdown_timeout: 2s
engine:
  max_digits: 12
store:
  path: ":memory:"
observability:
  log_level: debug
  otlp: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 12, cfg.Engine.MaxDigits)
	assert.Equal(t, ":memory:", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.OTLP)
	assert.Equal(t, "keypad-calc", cfg.Observability.ServiceName)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "engine:\n  max_digit: 3\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CALC_ADDR":             ":7000",
		"CALC_DB":               "/tmp/x.db",
		"CALC_MAX_DIGITS":       "6",
		"CALC_OTLP":             "true",
		"CALC_LOG_LEVEL":        "warn",
		"CALC_SHUTDOWN_TIMEOUT": "1s",
		"OTEL_SERVICE_NAME":     "calc-test",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, applyEnv(&cfg, lookup))
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "/tmp/x.db", cfg.Store.Path)
	assert.Equal(t, 6, cfg.Engine.MaxDigits)
	assert.True(t, cfg.Observability.OTLP)
	assert.Equal(t, "warn", cfg.Observability.LogLevel)
	assert.Equal(t, time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "calc-test", cfg.Observability.ServiceName)
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	for _, key := range []string{"CALC_MAX_DIGITS", "CALC_OTLP", "CALC_SHUTDOWN_TIMEOUT"} {
		t.Run(key, func(t *testing.T) {
			cfg := Default()
			err := applyEnv(&cfg, func(k string) (string, bool) {
				if k == key {
					return "not-a-value", true
				}
				return "", false
			})
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero shutdown", func(c *Config) { c.Server.ShutdownTimeout = 0 }},
		{"no digits", func(c *Config) { c.Engine.MaxDigits = 0 }},
		{"too many digits", func(c *Config) { c.Engine.MaxDigits = 100 }},
		{"empty store", func(c *Config) { c.Store.Path = "" }},
		{"bad level", func(c *Config) { c.Observability.LogLevel = "loud" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
