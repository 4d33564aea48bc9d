package retry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fast = Config{MaxRetries: 2, InitBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("retries transient errors", func(t *testing.T) {
		var calls atomic.Int32
		out, err := Do(ctx, fast, zaptest.NewLogger(t), func() (string, error) {
			if calls.Add(1) < 3 {
				return "", errors.New("429 Too Many Requests")
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var calls atomic.Int32
		_, err := Do(ctx, fast, zaptest.NewLogger(t), func() ([]float32, error) {
			calls.Add(1)
			return nil, errors.New("503 service unavailable")
		})
		assert.ErrorContains(t, err, "failed after 2 retries")
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("non transient errors return at once", func(t *testing.T) {
		var calls atomic.Int32
		_, err := Do(ctx, fast, nil, func() (int, error) {
			calls.Add(1)
			return 0, errors.New("invalid model name")
		})
		assert.EqualError(t, err, "invalid model name")
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("billing errors are fatal", func(t *testing.T) {
		var calls atomic.Int32
		_, err := Do(ctx, fast, zaptest.NewLogger(t), func() (string, error) {
			calls.Add(1)
			return "", errors.New("insufficient credits")
		})
		assert.ErrorContains(t, err, "billing")
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("stops on cancel", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := Do(cctx, Config{MaxRetries: 5, InitBackoff: time.Hour}, zaptest.NewLogger(t), func() (string, error) {
			return "", errors.New("502 bad gateway")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		err       error
		retryable bool
		billing   bool
	}{
		{errors.New("rate limit exceeded"), true, false},
		{errors.New("RESOURCE_EXHAUSTED"), true, false},
		{errors.New("ollama returned status 500: boom"), true, false},
		{errors.New("gateway timeout"), true, false},
		{errors.New("402 payment required"), false, true},
		{errors.New("unknown model"), false, false},
		{nil, false, false},
		{&StatusError{Service: "ollama", Code: 503}, true, false},
		{&StatusError{Service: "ollama", Code: 429}, true, false},
		{&StatusError{Service: "ollama", Code: 402}, false, true},
		{fmt.Errorf("generating: %w", &StatusError{Service: "webhook", Code: 502}), true, false},
		{&StatusError{Service: "ollama", Code: 400, Body: "prompt exceeds 500 tokens"}, false, false},
		{&StatusError{Service: "ollama", Code: 404, Body: "model 4029-abcd not found"}, false, false},
		{errors.New("request 9a4029f1-5000 rejected: invalid schema"), false, false},
		{errors.New("upstream status code: 504"), true, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.retryable, IsRetryableError(tt.err), "%v", tt.err)
		assert.Equal(t, tt.billing, IsBillingError(tt.err), "%v", tt.err)
	}
}

func TestStatusErrorMessage(t *testing.T) {
	assert.EqualError(t, &StatusError{Service: "ollama", Code: 500, Body: "boom"}, "ollama returned status 500: boom")
	assert.EqualError(t, &StatusError{Service: "learning webhook", Code: 404}, "learning webhook returned status 404")
}
