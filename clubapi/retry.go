package clubapi

import (
	"context"
	"time"

	"github.com/onnwee/club-tender/telemetry"
)

// Policy wraps a single platform action with the service's retry and backoff
// rules. It is the only place retry logic lives; actions themselves never
// sleep or loop.
//
// Rules, by result class:
//   - rate limited: suspend for RateLimitWait, then re-issue. Unbounded; a
//     persistent 429 is resolved only by the platform relenting or the caller
//     cancelling the context. Expressed as a loop, not recursion, so a long
//     throttling episode cannot grow the stack.
//   - absorbed: return immediately as a success-equivalent.
//   - retryable: re-issue up to Attempts times with Delay between tries, then
//     return the last status without error. Failure is reported through the
//     status, never raised.
type Policy struct {
	Attempts      int           // bounded tries for retryable failures (min 1)
	Delay         time.Duration // pause between bounded retries
	RateLimitWait time.Duration // suspension after a 429
}

// Do runs fn under the policy and returns the final status. The returned error
// is non-nil only when ctx was cancelled before the action settled; the status
// then reflects the last attempt, which the caller must discard.
func (p Policy) Do(ctx context.Context, fn func(context.Context) int) (int, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	tried := 0
	for {
		if err := ctx.Err(); err != nil {
			return StatusNone, err
		}
		status := fn(ctx)
		switch Classify(status) {
		case ClassOK, ClassAbsorbed:
			return status, nil
		case ClassRateLimited:
			// Does not consume a bounded attempt.
			telemetry.Inc(telemetry.RateLimits)
			if err := sleep(ctx, p.RateLimitWait); err != nil {
				return status, err
			}
		default:
			tried++
			if tried >= attempts {
				return status, nil
			}
			if err := sleep(ctx, p.Delay); err != nil {
				return status, err
			}
		}
	}
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
