package poller

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dvanosdol88/ai-assistants/internal/core/mailbox"
	"github.com/dvanosdol88/ai-assistants/internal/core/message"
)

// RetryPolicy bounds the exponential backoff applied to I/O faults.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, the first one included
	MaxAttempts int
	// InitialBackoff is the wait before the second try
	InitialBackoff time.Duration
	// MaxBackoff caps every wait
	MaxBackoff time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// jitter is the relative spread applied around each delay
const jitter = 0.2

// Delay returns the wait before retry number attempt (0-based): the initial
// backoff doubled per attempt, spread by ±20% and capped at MaxBackoff.
func (r RetryPolicy) Delay(attempt int) time.Duration {
	if r.InitialBackoff <= 0 {
		return 0
	}

	delay := r.InitialBackoff
	for i := 0; i < attempt && delay < r.MaxBackoff; i++ {
		delay *= 2
	}

	spread := 1 + jitter*(2*rand.Float64()-1) //nolint:gosec
	delay = time.Duration(float64(delay) * spread)

	if r.MaxBackoff > 0 && delay > r.MaxBackoff {
		return r.MaxBackoff
	}
	return delay
}

// ErrRetriesExhausted wraps the last error once every attempt failed
var ErrRetriesExhausted = errors.New("retries exhausted")

// retry runs op until it succeeds, fails permanently or the attempts run
// out. Waits honour ctx.
func (p *Poller) retry(ctx context.Context, op string, a mailbox.Address, fn func() error) error {
	attempts := p.retryPolicy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(); err == nil || permanent(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		delay := p.retryPolicy.Delay(attempt)
		p.logger.Warn("I/O fault, retrying",
			"op", op,
			"mailbox", a.Name(),
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		if sleepErr := p.sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
	}

	return errors.Join(ErrRetriesExhausted, err)
}

// permanent reports errors that no amount of retrying fixes
func permanent(err error) bool {
	return errors.Is(err, mailbox.ErrArchiveCollision) ||
		errors.Is(err, mailbox.ErrClaimClosed) ||
		errors.Is(err, mailbox.ErrInvalidIdentifier) ||
		errors.Is(err, message.ErrIncomplete) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
