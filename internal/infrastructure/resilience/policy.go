package resilience

import "time"

// Config tunes an Executor. Zero or negative fields take DefaultConfig values.
type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

// DefaultConfig is the policy for document downloads and queue publishes.
func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     400 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

// ModelConfig is the policy for embedding and answer extraction endpoints.
// A failed model call costs one question its answer, so attempts default to 1.
func ModelConfig(attempts int, breaker bool) Config {
	cfg := DefaultConfig()
	cfg.RetryMaxAttempts = max(attempts, 1)
	cfg.BreakerEnabled = breaker
	return cfg
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()

	c.RetryMaxAttempts = positive(c.RetryMaxAttempts, def.RetryMaxAttempts)
	c.RetryInitialBackoff = positive(c.RetryInitialBackoff, def.RetryInitialBackoff)
	c.RetryMaxBackoff = max(positive(c.RetryMaxBackoff, def.RetryMaxBackoff), c.RetryInitialBackoff)
	if c.RetryMultiplier < 1 {
		c.RetryMultiplier = def.RetryMultiplier
	}

	c.BreakerMinRequests = positive(c.BreakerMinRequests, def.BreakerMinRequests)
	if c.BreakerFailureRatio > 1 {
		c.BreakerFailureRatio = def.BreakerFailureRatio
	}
	c.BreakerFailureRatio = positive(c.BreakerFailureRatio, def.BreakerFailureRatio)
	c.BreakerOpenTimeout = positive(c.BreakerOpenTimeout, def.BreakerOpenTimeout)
	c.BreakerHalfOpenMaxCalls = positive(c.BreakerHalfOpenMaxCalls, def.BreakerHalfOpenMaxCalls)
	return c
}

func positive[T int | uint32 | float64 | time.Duration](v, fallback T) T {
	if v <= 0 {
		return fallback
	}
	return v
}
