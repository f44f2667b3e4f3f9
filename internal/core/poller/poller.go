// Package poller drives the mailbox lifecycle: detect, claim, decode,
// validate, dispatch, archive and reply. RunOnce is a single step; Run
// repeats it on a fixed interval.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/dvanosdol88/ai-assistants/internal/core/action"
	"github.com/dvanosdol88/ai-assistants/internal/core/logger"
	"github.com/dvanosdol88/ai-assistants/internal/core/mailbox"
	"github.com/dvanosdol88/ai-assistants/internal/core/message"
	"github.com/dvanosdol88/ai-assistants/internal/core/validator"
)

// State is a step of the per-message state machine
type State string

const (
	StateIdle          State = "idle"
	StateDetecting     State = "detecting"
	StateClaiming      State = "claiming"
	StateDecoding      State = "decoding"
	StateValidating    State = "validating"
	StateDispatching   State = "dispatching"
	StateArchiving     State = "archiving"
	StateReplying      State = "replying"
	StateErrorHandling State = "error_handling"
)

// Store is the part of the mailbox store the poller drives
type Store interface {
	Pending(recipient string) ([]mailbox.Address, error)
	Peek(a mailbox.Address) (fn.Option[[]byte], error)
	Claim(a mailbox.Address) (fn.Option[*mailbox.Claim], error)
	Recover(recipient string) ([]*mailbox.Claim, error)
	Archive(c *mailbox.Claim, msg message.Message) (string, error)
	Reject(c *mailbox.Claim, rec mailbox.Rejection) (*mailbox.Rejection, error)
	Abandon(c *mailbox.Claim) error
	IsArchived(id, recipient string) bool
	Cursor(ctx context.Context, a mailbox.Address) (mailbox.Cursor, error)
	Advance(ctx context.Context, a mailbox.Address, id string, rejected bool) error
	Halt(a mailbox.Address, rec mailbox.HaltRecord) error
	IsHalted(a mailbox.Address) bool
	DeliverOrSpool(ctx context.Context, msg message.Message) (bool, error)
	FlushOutbox(ctx context.Context, sender string) (mailbox.FlushResult, error)
}

// Dispatcher is the part of the action registry the poller drives
type Dispatcher interface {
	validator.Catalog
	Dispatch(ctx context.Context, req action.Request) action.Result
}

// Summary reports what one RunOnce did
type Summary struct {
	// Processed counts messages archived after a successful dispatch
	Processed int `json:"processed"`
	// Rejected counts messages moved to the rejected records
	Rejected int `json:"rejected"`
	// Idle is true when the tick found nothing to do
	Idle bool `json:"idle"`
	// Recovered counts staged claims taken over from a dead poller
	Recovered int `json:"recovered"`
	// Deferred counts replies waiting in the outbox for a busy mailbox
	Deferred int `json:"deferred"`
	// Halted counts mailboxes skipped or halted because of I/O faults
	Halted int `json:"halted"`
}

// Add accumulates other into s
func (s *Summary) Add(other Summary) {
	s.Processed += other.Processed
	s.Rejected += other.Rejected
	s.Recovered += other.Recovered
	s.Deferred += other.Deferred
	s.Halted += other.Halted
	s.Idle = s.Idle && other.Idle
}

// Options configures a Poller
type Options struct {
	// Identity is the recipient name this poller consumes messages for
	Identity string
	// Interval is the pause between ticks of Run
	Interval time.Duration
	// Retry bounds backoff for archive, claim and reply I/O
	Retry RetryPolicy
	// DisableReplies stops replies and error replies from being sent
	DisableReplies bool
	Logger         logger.Logger
}

// Poller consumes the mailboxes addressed to one identity.
type Poller struct {
	store       Store
	dispatcher  Dispatcher
	validator   *validator.Validator
	identity    string
	interval    time.Duration
	retryPolicy RetryPolicy
	replies     bool
	logger      logger.Logger

	// tick serialises RunOnce calls
	tick sync.Mutex

	stateMu sync.RWMutex
	state   State

	lastReply time.Time
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

// New creates a poller for opts.Identity
func New(store Store, dispatcher Dispatcher, opts Options) (*Poller, error) {
	if err := mailbox.ValidateIdentifier(opts.Identity); err != nil {
		return nil, fmt.Errorf("invalid poller identity: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = DefaultRetryPolicy()
	}

	return &Poller{
		store:       store,
		dispatcher:  dispatcher,
		validator:   validator.New(dispatcher),
		identity:    opts.Identity,
		interval:    opts.Interval,
		retryPolicy: opts.Retry,
		replies:     !opts.DisableReplies,
		logger:      log,
		state:       StateIdle,
		now:         time.Now,
		sleep:       sleepContext,
	}, nil
}

// Identity returns the recipient this poller consumes for
func (p *Poller) Identity() string {
	return p.identity
}

// State returns the current step of the state machine
func (p *Poller) State() State {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.state
}

func (p *Poller) setState(s State, args ...any) {
	p.stateMu.Lock()
	prev := p.state
	p.state = s
	p.stateMu.Unlock()

	if prev != s {
		p.logger.Debug("State transition", append([]any{"from", prev, "to", s}, args...)...)
	}
}

// Run calls RunOnce immediately and then every interval until ctx ends.
// Errors from individual ticks are logged and do not stop the loop.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("Poller started", "identity", p.identity, "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		summary, err := p.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			p.logger.Error("Tick failed", "error", err)
		}
		if !summary.Idle {
			p.logger.Info("Tick complete",
				"processed", summary.Processed,
				"rejected", summary.Rejected,
				"recovered", summary.Recovered,
				"deferred", summary.Deferred,
				"halted", summary.Halted,
			)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("Poller stopped", "identity", p.identity)
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce performs one tick: recover orphaned claims, flush deferred
// replies, then process every non-halted mailbox addressed to the
// identity. Fatal faults halt the affected mailbox and are returned joined;
// the remaining mailboxes are still processed.
func (p *Poller) RunOnce(ctx context.Context) (Summary, error) {
	p.tick.Lock()
	defer p.tick.Unlock()
	defer p.setState(StateIdle)

	var (
		summary   Summary
		errs      []error
		delivered int
		skipped   int
	)

	recovered, err := p.store.Recover(p.identity)
	if err != nil {
		errs = append(errs, fmt.Errorf("recover staged claims: %w", err))
	}
	for _, c := range recovered {
		if p.store.IsHalted(c.Address) {
			_ = p.store.Abandon(c)
			continue
		}
		summary.Recovered++
		if err := p.process(ctx, c, &summary); err != nil {
			errs = append(errs, err)
		}
	}

	flushed, err := p.store.FlushOutbox(ctx, p.identity)
	if err != nil {
		p.logger.Warn("Failed to flush outbox", "error", err)
	}
	delivered = flushed.Delivered

	pending, err := p.store.Pending(p.identity)
	if err != nil {
		errs = append(errs, fmt.Errorf("list mailboxes: %w", err))
	}
	for _, a := range pending {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if p.store.IsHalted(a) {
			p.logger.Debug("Skipping halted mailbox", "mailbox", a.Name())
			summary.Halted++
			skipped++
			continue
		}
		if err := p.consume(ctx, a, &summary); err != nil {
			errs = append(errs, err)
		}
	}

	// Replies spooled during this tick are counted by the flush of the next
	// one; report everything still waiting now.
	summary.Deferred += flushed.Deferred
	summary.Idle = summary.Processed == 0 && summary.Rejected == 0 &&
		summary.Recovered == 0 && delivered == 0 && summary.Halted == skipped

	return summary, errors.Join(errs...)
}

// consume runs one mailbox through Detecting and Claiming, then processes
// the claim.
func (p *Poller) consume(ctx context.Context, a mailbox.Address, summary *Summary) error {
	p.setState(StateDetecting, "mailbox", a.Name())
	content, err := p.store.Peek(a)
	if err != nil {
		p.logger.Warn("Failed to peek mailbox", "mailbox", a.Name(), "error", err)
		return nil
	}
	if content.IsNone() {
		return nil
	}

	p.setState(StateClaiming, "mailbox", a.Name())
	var claim fn.Option[*mailbox.Claim]
	err = p.retry(ctx, "claim", a, func() error {
		var claimErr error
		claim, claimErr = p.store.Claim(a)
		return claimErr
	})
	if err != nil {
		return p.escalate(a, "", "claim", err, summary)
	}

	var procErr error
	claim.WhenSome(func(c *mailbox.Claim) {
		procErr = p.process(ctx, c, summary)
	})
	// None: another poller won the claim
	return procErr
}
