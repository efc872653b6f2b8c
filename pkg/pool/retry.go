package pool

import (
	"math"
	"time"

	"github.com/vilicvane/promise-pool/pkg/common/errors"
	"github.com/vilicvane/promise-pool/pkg/common/validation"
)

// Unlimited marks a retry budget with no upper bound.
const Unlimited = -1

// RetryPolicy controls how failed tasks are re-invoked. Each task captures
// the policy at admission time; live changes via SetRetry only affect tasks
// admitted afterwards.
type RetryPolicy struct {
	// Limit is the retry budget per task: the number of re-invocations after
	// the first failed attempt. 0 disables retries, Unlimited removes the
	// bound.
	Limit int

	// Interval is the base backoff delay before the first retry.
	Interval time.Duration

	// MaxInterval caps the backoff delay. 0 leaves the delay uncapped.
	MaxInterval time.Duration

	// Multiplier is the backoff growth factor per retry. Values <= 0 are
	// treated as 1 (constant delay).
	Multiplier float64
}

// Delay returns the backoff delay before a retry. attempt counts retries
// per task, starting at 0 for the first retry:
//
//	delay(attempt) = min(Interval * Multiplier^attempt, MaxInterval)
//
// Delay is a pure function of the policy and the attempt number.
func (rp RetryPolicy) Delay(attempt int) time.Duration {
	if rp.Interval <= 0 {
		return 0
	}

	multiplier := rp.Multiplier
	if multiplier <= 0 {
		multiplier = 1
	}

	delay := float64(rp.Interval) * math.Pow(multiplier, float64(attempt))
	if rp.MaxInterval > 0 && delay > float64(rp.MaxInterval) {
		return rp.MaxInterval
	}
	if delay > float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}

// validate checks the policy fields and returns a ValidationError on misuse.
func (rp RetryPolicy) validate() error {
	if rp.Limit < Unlimited {
		return errors.NewValidationError("pool", "retries", rp.Limit, "must be non-negative or Unlimited").
			WithHint("use pool.Unlimited for an unbounded retry budget")
	}
	if err := validation.ValidateNonNegativeDuration("pool", "retryInterval", rp.Interval); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeDuration("pool", "maxRetryInterval", rp.MaxInterval); err != nil {
		return err
	}
	if rp.Multiplier < 0 {
		return errors.NewValidationError("pool", "retryIntervalMultiplier", rp.Multiplier, "cannot be negative").
			WithHint("use 0 or 1 for a constant delay")
	}
	return nil
}
