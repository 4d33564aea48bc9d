// Package retry retries provider calls that failed with transient errors.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultMaxRetries  = 2
	defaultInitBackoff = time.Second
	defaultMaxBackoff  = 30 * time.Second
	backoffFactor      = 2.0
)

// Config controls how transient provider errors are retried.
type Config struct {
	MaxRetries  int
	InitBackoff time.Duration
	MaxBackoff  time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitBackoff <= 0 {
		c.InitBackoff = defaultInitBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaultMaxBackoff
	}
	return c
}

// Do calls fn until it succeeds, fails permanently or runs out of retries.
func Do[T any](ctx context.Context, cfg Config, log *zap.Logger, fn func() (T, error)) (T, error) {
	var zero T
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	backoff := cfg.InitBackoff

	for attempt := 0; ; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		if IsBillingError(err) {
			return zero, fmt.Errorf("billing/payment error (fatal): %w", err)
		}
		if !IsRetryableError(err) {
			return zero, err
		}
		if attempt >= cfg.MaxRetries {
			return zero, fmt.Errorf("failed after %d retries: %w", cfg.MaxRetries, err)
		}

		log.Warn("transient provider error, backing off",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * backoffFactor)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}
}

// StatusError is a non-success HTTP response from a hand-written client.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.Code)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Code, e.Body)
}

// statusCode finds the HTTP status behind err, if any layer recorded one.
func statusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	var oe *openai.Error
	if errors.As(err, &oe) {
		return oe.StatusCode, true
	}
	var ae *anthropic.Error
	if errors.As(err, &ae) {
		return ae.StatusCode, true
	}
	var ge genai.APIError
	if errors.As(err, &ge) {
		return ge.Code, true
	}
	if m := statusPattern.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return code, true
	}
	return 0, false
}

var statusPattern = regexp.MustCompile(`(?i)\bstatus(?: code)?[ :=]+([1-5][0-9]{2})\b`)

func containsAny(err error, phrases ...string) bool {
	errStr := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(errStr, p) {
			return true
		}
	}
	return false
}

// IsRetryableError reports rate limits and 5xx responses.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := statusCode(err); ok {
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}
	return containsAny(err,
		"rate limit", "too many requests", "overloaded",
		"resource exhausted", "resource_exhausted",
		"internal server error", "bad gateway", "service unavailable",
		"gateway timeout", "temporarily unavailable")
}

// IsBillingError reports payment and quota failures, which never succeed on retry.
func IsBillingError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := statusCode(err); ok && code == http.StatusPaymentRequired {
		return true
	}
	return containsAny(err, "billing", "payment required", "insufficient credits",
		"insufficient_quota", "insufficient quota", "quota exceeded", "credit balance")
}
