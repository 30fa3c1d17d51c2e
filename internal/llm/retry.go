package llm

import (
	"context"
	"math/rand"
	"time"

	"docmind/internal/config"
	"docmind/internal/core/apperr"
)

// Policy bounds retries against the completion service: exponential
// backoff with full jitter, retrying only transient upstream failures.
type Policy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// PolicyFromConfig builds a Policy from the retry section of the config.
func PolicyFromConfig(cfg config.RetryConfig) Policy {
	return Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseBackoff: cfg.BaseBackoffDuration(),
		MaxBackoff:  cfg.MaxBackoffDuration(),
	}
}

// backoff returns the sleep before attempt n (0-based), capped at
// MaxBackoff, with full jitter.
func (p Policy) backoff(attempt int) time.Duration {
	d := p.BaseBackoff << uint(attempt)
	if d > p.MaxBackoff || d <= 0 {
		d = p.MaxBackoff
	}
	return time.Duration(rand.Int63n(int64(d) + 1))
}

// retrying wraps a CompletionService with the bounded retry policy.
type retrying struct {
	inner  CompletionService
	policy Policy
}

// WithRetry decorates svc so transient failures (service unavailable,
// rate limited) are retried up to the policy's attempt budget. The last
// error surfaces as-is once the budget is exhausted.
func WithRetry(svc CompletionService, policy Policy) CompletionService {
	if policy.MaxAttempts <= 1 {
		return svc
	}
	return &retrying{inner: svc, policy: policy}
}

func (r *retrying) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(r.policy.backoff(attempt - 1)):
			}
		}

		result, err := r.inner.Complete(ctx, prompt)
		if err == nil {
			return result, nil
		}
		if !apperr.Retryable(err) {
			return "", err
		}
		lastErr = err
	}

	return "", lastErr
}
