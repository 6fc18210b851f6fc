package config

import (
	"errors"
	"fmt"
)

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("cache.backend must be %q or %q", CacheBackendMemory, CacheBackendRedis)
	}
	if c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}

	if c.Resilience.AttemptTimeout <= 0 {
		return errors.New("resilience.attempt_timeout must be positive")
	}
	if c.Resilience.MaxRetries < 0 {
		return errors.New("resilience.max_retries must not be negative")
	}
	if c.Resilience.BackoffBase < 1 {
		return errors.New("resilience.backoff_base must be at least 1")
	}
	if c.Resilience.FailureThreshold <= 0 {
		return errors.New("resilience.failure_threshold must be positive")
	}
	if c.Resilience.OpenDuration <= 0 {
		return errors.New("resilience.open_duration must be positive")
	}

	if len(c.Sources) == 0 {
		return errors.New("at least one source must be configured")
	}
	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("sources[%d]: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = true

		switch s.Kind {
		case SourceKindMock:
			if s.FailureRate < 0 || s.FailureRate > 1 {
				return fmt.Errorf("source %s: failure_rate must be between 0 and 1", s.Name)
			}
		case SourceKindHTTP:
			if s.BaseURL == "" {
				return fmt.Errorf("source %s: base_url is required", s.Name)
			}
		case SourceKindLedger:
		default:
			return fmt.Errorf("source %s: unknown kind %q", s.Name, s.Kind)
		}
	}

	return nil
}
