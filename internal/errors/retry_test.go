package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetryWithResult_SucceedsAfterTransientError(t *testing.T) {
	// Given: a function that fails twice with a retryable error then succeeds
	attempts := 0
	fn := func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", NetworkError("connection reset", nil)
		}
		return "corpus", nil
	}

	// When: retrying
	result, err := RetryWithResult(context.Background(), fastRetryConfig(3), fn)

	// Then: succeeds on the third attempt
	require.NoError(t, err)
	assert.Equal(t, "corpus", result)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithResult_FailsAfterMaxRetries(t *testing.T) {
	attempts := 0
	fn := func() (int, error) {
		attempts++
		return 0, NetworkError("unreachable", nil)
	}

	_, err := RetryWithResult(context.Background(), fastRetryConfig(2), fn)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, 3, attempts) // initial + 2 retries
	assert.Equal(t, ErrCodeNetworkUnavailable, GetCode(err))
}

func TestRetryWithResult_DoesNotRetryPermanentErrors(t *testing.T) {
	// Given: a function failing with a non-retryable error
	attempts := 0
	fn := func() (int, error) {
		attempts++
		return 0, New(ErrCodeSourceNotFound, "404", nil)
	}

	// When: retrying
	_, err := RetryWithResult(context.Background(), fastRetryConfig(5), fn)

	// Then: only one attempt is made
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, ErrCodeSourceNotFound, GetCode(err))
}

func TestRetryWithResult_PlainErrorsAreNotRetried(t *testing.T) {
	attempts := 0
	_, err := RetryWithResult(context.Background(), fastRetryConfig(5), func() (int, error) {
		attempts++
		return 0, errors.New("boom")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithResult_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := RetryWithResult(ctx, fastRetryConfig(3), func() (int, error) {
		called = true
		return 1, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
