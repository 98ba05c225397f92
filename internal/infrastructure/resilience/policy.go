package resilience

import "time"

// Config is the retry and breaker policy shared by every adapter. Zero
// or out-of-range values fall back to the defaults, so a partially
// filled literal is safe.
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

// Policy defaults. Three quick attempts keep a slow OCR worker or Ollama
// call from stalling a pipeline run for long; the breaker opens once half
// of a ten-request window fails.
const (
	defaultRetryAttempts    = 3
	defaultInitialBackoff   = 100 * time.Millisecond
	defaultMaxBackoff       = 400 * time.Millisecond
	defaultRetryMultiplier  = 2.0
	defaultBreakerRequests  = 10
	defaultFailureRatio     = 0.5
	defaultOpenTimeout      = 30 * time.Second
	defaultHalfOpenMaxCalls = 2
)

func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    defaultRetryAttempts,
		RetryInitialBackoff: defaultInitialBackoff,
		RetryMaxBackoff:     defaultMaxBackoff,
		RetryMultiplier:     defaultRetryMultiplier,

		BreakerEnabled:          true,
		BreakerMinRequests:      defaultBreakerRequests,
		BreakerFailureRatio:     defaultFailureRatio,
		BreakerOpenTimeout:      defaultOpenTimeout,
		BreakerHalfOpenMaxCalls: defaultHalfOpenMaxCalls,
	}
}

func (c Config) normalize() Config {
	out := c
	out.RetryMaxAttempts = pick(out.RetryMaxAttempts, defaultRetryAttempts)
	out.RetryInitialBackoff = pick(out.RetryInitialBackoff, defaultInitialBackoff)
	out.RetryMaxBackoff = max(pick(out.RetryMaxBackoff, defaultMaxBackoff), out.RetryInitialBackoff)
	if out.RetryMultiplier < 1.0 {
		out.RetryMultiplier = defaultRetryMultiplier
	}

	out.BreakerMinRequests = pick(out.BreakerMinRequests, defaultBreakerRequests)
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = defaultFailureRatio
	}
	out.BreakerOpenTimeout = pick(out.BreakerOpenTimeout, defaultOpenTimeout)
	out.BreakerHalfOpenMaxCalls = pick(out.BreakerHalfOpenMaxCalls, defaultHalfOpenMaxCalls)
	return out
}

// pick returns the value when it is positive, the fallback otherwise.
func pick[T interface {
	~int | ~int64 | ~uint32
}](value, fallback T) T {
	if value <= 0 {
		return fallback
	}
	return value
}
