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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 5*time.Second, cfg.Resilience.AttemptTimeout)
	assert.Equal(t, 3, cfg.Resilience.MaxRetries)
	assert.Equal(t, 5, cfg.Resilience.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.Resilience.OpenDuration)
	assert.Len(t, cfg.Sources, 3)
	assert.False(t, cfg.UsesLedger())
}

func TestLoad_FileReplacesSources(t *testing.T) {
	path := writeConfig(t, `
cache:
  backend: redis
  ttl: 2m
  allow_clear: true
resilience:
  attempt_timeout: 750ms
  max_retries: 1
sources:
  - name: partner
    kind: http
    base_url: http://partner.local
    timeout: 2s
  - name: ledger
    kind: ledger
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.Cache.AllowClear)
	assert.Equal(t, 750*time.Millisecond, cfg.Resilience.AttemptTimeout)
	assert.Equal(t, 1, cfg.Resilience.MaxRetries)
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "partner", cfg.Sources[0].Name)
	assert.Equal(t, 2*time.Second, cfg.Sources[0].Timeout)
	assert.Equal(t, "", cfg.Sources[1].BaseURL)
	assert.True(t, cfg.UsesLedger())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AGGREGATOR_SERVER_PORT", "9090")
	t.Setenv("AGGREGATOR_LOG_LEVEL", "debug")
	t.Setenv("AGGREGATOR_CACHE_TTL", "30s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeConfig(t, "server: [not: valid")

	_, err := Load(path)

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"bad backend", func(c *Config) { c.Cache.Backend = "disk" }, "cache.backend"},
		{"zero ttl", func(c *Config) { c.Cache.TTL = 0 }, "cache.ttl"},
		{"negative retries", func(c *Config) { c.Resilience.MaxRetries = -1 }, "max_retries"},
		{"zero threshold", func(c *Config) { c.Resilience.FailureThreshold = 0 }, "failure_threshold"},
		{"no sources", func(c *Config) { c.Sources = nil }, "at least one source"},
		{"duplicate source", func(c *Config) { c.Sources[1].Name = c.Sources[0].Name }, "duplicate name"},
		{"unknown kind", func(c *Config) { c.Sources[0].Kind = "ftp" }, "unknown kind"},
		{"http without url", func(c *Config) { c.Sources[0].Kind = SourceKindHTTP }, "base_url"},
		{"failure rate", func(c *Config) { c.Sources[0].FailureRate = 1.5 }, "failure_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
