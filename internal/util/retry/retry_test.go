package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOpts() []Option {
	return []Option{
		WithMaxRetries(3),
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(5 * time.Millisecond),
	}
}

func TestWithExponentialBackoff_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := WithExponentialBackoff(context.Background(), func() error {
		calls++
		return nil
	}, fastOpts()...)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithExponentialBackoff_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	err := WithExponentialBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, fastOpts()...)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithExponentialBackoff_ExhaustsRetries(t *testing.T) {
	calls := 0
	err := WithExponentialBackoff(context.Background(), func() error {
		calls++
		return errors.New("always failing")
	}, fastOpts()...)

	require.Error(t, err)
	assert.Equal(t, 4, calls) // first attempt + 3 retries
	assert.Contains(t, err.Error(), "failed after 4 attempts")
}

type typedErr struct{ msg string }

func (e *typedErr) Error() string { return e.msg }

func TestWithExponentialBackoff_FatalStopsImmediately(t *testing.T) {
	calls := 0
	underlying := &typedErr{msg: "bad credentials"}
	err := WithExponentialBackoff(context.Background(), func() error {
		calls++
		return Fatal(underlying)
	}, fastOpts()...)

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	// Fatal is unwrapped so callers can classify with errors.As.
	var te *typedErr
	require.ErrorAs(t, err, &te)
	assert.Same(t, underlying, te)
}

func TestWithExponentialBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithExponentialBackoff(ctx, func() error {
		return errors.New("transient")
	}, WithMaxRetries(3), WithInitialDelay(time.Minute))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFatal_NilStaysNil(t *testing.T) {
	assert.NoError(t, Fatal(nil))
}
