package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/clinova/medassist/pkg/errors"
	"github.com/clinova/medassist/pkg/retry"
)

func fastConfig() retry.Config {
	return retry.Config{
		MaxAttempts:     3,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		BackoffFactor:   2.0,
		MaxTotalTimeout: time.Second,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	cause := errors.New("still down")
	err := retry.Do(context.Background(), fastConfig(), func() error {
		calls++
		return cause
	})

	assert.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, calls)
}

func TestDoIf_StopsOnNonRetryableError(t *testing.T) {
	calls := 0
	notFound := apperrors.NewNotFoundError("no such article")

	err := retry.DoIf(context.Background(), fastConfig(), func() error {
		calls++
		return notFound
	}, apperrors.IsProvider)

	assert.Equal(t, 1, calls, "non-retryable errors must not be retried")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDoIf_RetriesProviderErrors(t *testing.T) {
	calls := 0
	err := retry.DoIf(context.Background(), fastConfig(), func() error {
		calls++
		if calls == 1 {
			return apperrors.NewProviderError("rate limited", nil)
		}
		return nil
	}, apperrors.IsProvider)

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := retry.Do(ctx, fastConfig(), func() error {
		calls++
		cancel()
		return errors.New("transient")
	})

	assert.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoWithLog_ReportsEachFailedAttempt(t *testing.T) {
	var attempts []int
	err := retry.DoWithLog(context.Background(), fastConfig(), "pubmed", func() error {
		return errors.New("timeout")
	}, func(attempt int, err error, nextDelay time.Duration) {
		attempts = append(attempts, attempt)
	})

	assert.Error(t, err)
	// The last attempt fails without a log call because no retry follows it.
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestProviderConfig(t *testing.T) {
	cfg := retry.ProviderConfig()

	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, 30*time.Second, cfg.MaxTotalTimeout)
}
