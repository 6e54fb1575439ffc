package retry

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/docmerge/internal/config"
	"git.home.luguber.info/inful/docmerge/internal/foundation/errors"
)

// Policy encapsulates retry/backoff settings for transient sync failures.
// It is immutable after construction.
type Policy struct {
	Mode       config.RetryBackoffMode // fixed|linear|exponential
	Initial    time.Duration           // base delay
	Max        time.Duration           // cap for growth
	MaxRetries int                     // maximum retry attempts after the first failure
}

// DefaultPolicy returns the no-retry policy (exponential, 2s initial, 30s cap, 0 retries).
func DefaultPolicy() Policy {
	return Policy{Mode: config.RetryBackoffExponential, Initial: 2 * time.Second, Max: 30 * time.Second}
}

// NewPolicy builds a policy from raw config fields; zero/invalid values fall back to defaults.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	if m := config.NormalizeRetryBackoff(string(mode)); m != "" {
		p.Mode = m
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// FromSync builds the caller-side sync retry policy from configuration.
func FromSync(s config.SyncConfig) (Policy, error) {
	initial, maxDelay, err := s.RetryDelays()
	if err != nil {
		return Policy{}, err
	}
	p := Policy{Mode: config.NormalizeRetryBackoff(string(s.RetryBackoff)), Initial: initial, Max: maxDelay, MaxRetries: s.MaxRetries}
	if p.Mode == "" {
		p.Mode = DefaultPolicy().Mode
	}
	if err := p.Validate(); err != nil {
		return Policy{}, errors.ConfigError(fmt.Sprintf("invalid sync retry policy: %v", err)).
			WithContext("field", "sync").
			Build()
	}
	return p, nil
}

// Delay returns the backoff delay for the given retry attempt number (1-based: first retry => 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case config.RetryBackoffFixed:
		return p.Initial
	case config.RetryBackoffExponential:
		if retryCount > 30 {
			return p.Max
		}
		d := p.Initial * (1 << (retryCount - 1))
		if d > p.Max || d <= 0 {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// Validate ensures invariants; returns error if policy impossible to apply.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial must be >0")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max must be >0")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	return nil
}

// Do runs op until it succeeds, returns a permanent error, or the policy's
// retries are exhausted. onRetry, when non-nil, is called before each wait.
// The last error is returned unchanged.
func (p Policy) Do(ctx context.Context, op func() error, permanent func(error) bool, onRetry func(retry int, delay time.Duration, err error)) error {
	err := op()
	for retry := 1; err != nil && retry <= p.MaxRetries; retry++ {
		if permanent != nil && permanent(err) {
			return err
		}
		delay := p.Delay(retry)
		if onRetry != nil {
			onRetry(retry, delay, err)
		}
		if waitErr := sleep(ctx, delay); waitErr != nil {
			return err
		}
		err = op()
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
