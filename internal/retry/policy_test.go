package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmerge/internal/config"
	ferrors "git.home.luguber.info/inful/docmerge/internal/foundation/errors"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, config.RetryBackoffExponential, p.Mode)
	assert.Equal(t, 2*time.Second, p.Initial)
	assert.Equal(t, 30*time.Second, p.Max)
	assert.Equal(t, 0, p.MaxRetries)
}

// Initial larger than max is clamped.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 5*time.Second, 2*time.Second, 5)
	assert.Equal(t, 2*time.Second, p.Initial)
	assert.Equal(t, 2*time.Second, p.Max)
	assert.Equal(t, config.RetryBackoffFixed, p.Mode)
	assert.Equal(t, 5, p.MaxRetries)

	unknown := NewPolicy("random", 0, 0, -1)
	assert.Equal(t, DefaultPolicy(), unknown)
}

func TestFromSync(t *testing.T) {
	cfg := config.Default()
	cfg.Sync.MaxRetries = 3
	cfg.Sync.RetryBackoff = config.RetryBackoffLinear
	cfg.Sync.RetryInitialDelay = "100ms"
	cfg.Sync.RetryMaxDelay = "1s"

	p, err := FromSync(cfg.Sync)
	require.NoError(t, err)
	assert.Equal(t, Policy{Mode: config.RetryBackoffLinear, Initial: 100 * time.Millisecond, Max: time.Second, MaxRetries: 3}, p)

	cfg.Sync.RetryBackoff = "FIXED"
	p, err = FromSync(cfg.Sync)
	require.NoError(t, err)
	assert.Equal(t, config.RetryBackoffFixed, p.Mode)

	cfg.Sync.RetryMaxDelay = "later"
	_, err = FromSync(cfg.Sync)
	require.Error(t, err)
}

func TestFromSync_RejectsUnusablePolicy(t *testing.T) {
	cfg := config.Default()
	cfg.Sync.RetryInitialDelay = "0s"
	_, err := FromSync(cfg.Sync)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	cfg = config.Default()
	cfg.Sync.MaxRetries = -1
	_, err = FromSync(cfg.Sync)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestDelayModes(t *testing.T) {
	fixed := NewPolicy(config.RetryBackoffFixed, 100*time.Millisecond, 500*time.Millisecond, 3)
	for i := 1; i <= 3; i++ {
		assert.Equal(t, 100*time.Millisecond, fixed.Delay(i), "fixed attempt %d", i)
	}

	linear := NewPolicy(config.RetryBackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 5)
	exp := NewPolicy(config.RetryBackoffExponential, 50*time.Millisecond, 160*time.Millisecond, 5)
	cases := []struct {
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{linear, 1, 100 * time.Millisecond},
		{linear, 2, 200 * time.Millisecond},
		{linear, 3, 250 * time.Millisecond},
		{exp, 1, 50 * time.Millisecond},
		{exp, 2, 100 * time.Millisecond},
		{exp, 3, 160 * time.Millisecond},
		{exp, 64, 160 * time.Millisecond},
		{linear, 0, 0},
		{linear, -1, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.policy.Delay(c.attempt), "%s attempt %d", c.policy.Mode, c.attempt)
	}
}

func TestValidate(t *testing.T) {
	assert.Error(t, Policy{Mode: config.RetryBackoffLinear, Initial: 0, Max: time.Second}.Validate())
	assert.Error(t, Policy{Mode: config.RetryBackoffLinear, Initial: time.Second, Max: 0}.Validate())
	assert.Error(t, Policy{Mode: config.RetryBackoffLinear, Initial: time.Second, Max: time.Second, MaxRetries: -1}.Validate())
	assert.NoError(t, DefaultPolicy().Validate())
}

func TestDo(t *testing.T) {
	errTransient := errors.New("connection reset")
	errPermanent := errors.New("authentication required")
	isPermanent := func(err error) bool { return errors.Is(err, errPermanent) }
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		var retries []int
		err := p.Do(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errTransient
			}
			return nil
		}, isPermanent, func(retry int, _ time.Duration, _ error) { retries = append(retries, retry) })
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []int{1, 2}, retries)
	})

	t.Run("exhausts retries", func(t *testing.T) {
		calls := 0
		err := p.Do(context.Background(), func() error { calls++; return errTransient }, isPermanent, nil)
		require.ErrorIs(t, err, errTransient)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error is not retried", func(t *testing.T) {
		calls := 0
		err := p.Do(context.Background(), func() error { calls++; return errPermanent }, isPermanent, nil)
		require.ErrorIs(t, err, errPermanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("zero retries calls once", func(t *testing.T) {
		calls := 0
		err := DefaultPolicy().Do(context.Background(), func() error { calls++; return errTransient }, nil, nil)
		require.ErrorIs(t, err, errTransient)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context stops waiting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		slow := NewPolicy(config.RetryBackoffFixed, time.Hour, time.Hour, 5)
		calls := 0
		err := slow.Do(ctx, func() error { calls++; return errTransient }, nil, nil)
		require.ErrorIs(t, err, errTransient)
		assert.Equal(t, 1, calls)
	})
}
