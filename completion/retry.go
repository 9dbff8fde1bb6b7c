package completion

import (
	"context"
	"errors"
	"log"
	"time"
)

// Policy bounds the retry loop: up to MaxAttempts calls, sleeping
// BaseDelay between the first two and doubling up to CapDelay after
// that. Fatal failures short-circuit; only the last attempt's failure
// is surfaced.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	CapDelay    time.Duration

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy matches the documented defaults: 3 attempts, 1s base,
// 8s cap.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second, CapDelay: 8 * time.Second}
}

func (p Policy) run(ctx context.Context, fn func() (Reply, error)) (Reply, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	delay := p.BaseDelay
	for attempt := 1; ; attempt++ {
		reply, err := fn()
		if err == nil {
			return reply, nil
		}

		var ue *UpstreamError
		if !errors.As(err, &ue) || !ue.Retryable || attempt >= attempts {
			return Reply{}, err
		}

		log.Printf("[completion] attempt %d/%d failed (%s), retrying in %s: %v",
			attempt, attempts, ue.Category, delay, ue.Err)
		if err := sleep(ctx, delay); err != nil {
			return Reply{}, retryableErr(CategoryConnectivity, err)
		}
		delay *= 2
		if p.CapDelay > 0 && delay > p.CapDelay {
			delay = p.CapDelay
		}
	}
}

// sleepCtx waits for d but gives up as soon as ctx is done. No database
// transaction is ever held across this wait.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
