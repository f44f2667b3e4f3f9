package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvanosdol88/ai-assistants/internal/core/action"
	"github.com/dvanosdol88/ai-assistants/internal/core/mailbox"
	"github.com/dvanosdol88/ai-assistants/internal/core/message"
	"github.com/dvanosdol88/ai-assistants/internal/core/validator"
)

// reasoned is implemented by every typed error that carries a compact code
type reasoned interface {
	ReasonCode() string
}

func reasonCode(err error, fallback string) string {
	var r reasoned
	if errors.As(err, &r) {
		return r.ReasonCode()
	}
	return fallback
}

// process runs a claimed message to a terminal state: archived, rejected,
// or left staged behind a halted mailbox.
func (p *Poller) process(ctx context.Context, c *mailbox.Claim, summary *Summary) error {
	a := c.Address
	log := p.logger.With("mailbox", a.Name(), "token", c.Token)

	p.setState(StateDecoding, "mailbox", a.Name())
	msg, err := message.Decode(c.Raw)
	if err != nil {
		log.Warn("Rejecting undecodable message", "reason", reasonCode(err, "MalformedHeader"), "error", err)
		return p.reject(ctx, c, message.Message{}, mailbox.StageDecode, err, summary)
	}
	log = log.With("id", msg.ID, "action", msg.Action)

	if msg.For != a.For || msg.From != a.From {
		err := fmt.Errorf("message from %q for %q found in mailbox %s", msg.From, msg.For, a)
		log.Warn("Rejecting misaddressed message", "error", err)
		return p.rejectWithReason(ctx, c, msg, mailbox.StageValidate, "Misaddressed", err, summary)
	}

	if c.Recovered && p.store.IsArchived(msg.ID, a.For) {
		// The previous owner got as far as archiving
		log.Info("Recovered claim already archived, finalizing")
		return p.archive(ctx, c, msg, summary)
	}

	p.setState(StateValidating, "mailbox", a.Name(), "id", msg.ID)
	cursor, err := p.store.Cursor(ctx, a)
	if err != nil {
		// Validation without the cursor could let a replay through
		return p.abandon(ctx, c, msg.ID, "cursor", err, summary)
	}
	if err := p.validator.Validate(msg, cursor.Last()); err != nil {
		log.Warn("Rejecting invalid message", "reason", reasonCode(err, "ValidationError"), "error", err)
		return p.reject(ctx, c, msg, mailbox.StageValidate, err, summary)
	}
	if p.store.IsArchived(msg.ID, a.For) {
		err := &validator.ValidationError{Kind: validator.KindStaleID, Reason: "id is already archived"}
		log.Warn("Rejecting duplicate message", "error", err)
		return p.reject(ctx, c, msg, mailbox.StageValidate, err, summary)
	}

	p.setState(StateDispatching, "mailbox", a.Name(), "id", msg.ID, "action", msg.Action)
	outcome, err := p.dispatcher.Dispatch(ctx, action.Request{
		Action:  msg.Action,
		From:    msg.From,
		Payload: msg.Payload,
		Body:    msg.Body,
	}).Unpack()
	if err != nil {
		log.Warn("Action failed", "reason", reasonCode(err, "HandlerError"), "error", err)
		return p.reject(ctx, c, msg, mailbox.StageDispatch, err, summary)
	}

	if err := p.archive(ctx, c, msg, summary); err != nil {
		return err
	}
	summary.Processed++
	log.Info("Message processed", "status", outcome.Status)

	if !msg.IsReply() {
		p.reply(ctx, msg, p.okReply(msg, outcome), summary)
	}
	return nil
}

// archive moves the claim to the archive and advances the cursor.
func (p *Poller) archive(ctx context.Context, c *mailbox.Claim, msg message.Message, summary *Summary) error {
	a := c.Address
	p.setState(StateArchiving, "mailbox", a.Name(), "id", msg.ID)

	err := p.retry(ctx, "archive", a, func() error {
		_, err := p.store.Archive(c, msg)
		return err
	})
	if errors.Is(err, mailbox.ErrArchiveCollision) {
		// Never overwrite: record the collision loudly and keep the bytes
		p.logger.Error("Archive collision", "mailbox", a.Name(), "id", msg.ID, "error", err)
		return p.rejectWithReason(ctx, c, msg, mailbox.StageArchive, "ArchiveCollision", err, summary)
	}
	if err != nil {
		return p.abandon(ctx, c, msg.ID, "archive", err, summary)
	}

	if err := p.retry(ctx, "cursor", a, func() error {
		return p.store.Advance(ctx, a, msg.ID, false)
	}); err != nil {
		// The archive entry still guards against replays of this id
		p.logger.Error("Failed to advance cursor", "mailbox", a.Name(), "id", msg.ID, "error", err)
	}
	return nil
}

// reject is ErrorHandling: record the failure, advance the cursor past the
// id, and answer with an error reply when the sender can be trusted.
func (p *Poller) reject(ctx context.Context, c *mailbox.Claim, msg message.Message, stage mailbox.Stage, cause error, summary *Summary) error {
	return p.rejectWithReason(ctx, c, msg, stage, reasonCode(cause, "Error"), cause, summary)
}

func (p *Poller) rejectWithReason(ctx context.Context, c *mailbox.Claim, msg message.Message, stage mailbox.Stage, reason string, cause error, summary *Summary) error {
	a := c.Address
	p.setState(StateErrorHandling, "mailbox", a.Name(), "reason", reason)

	rec := mailbox.Rejection{
		ID:     msg.ID,
		Action: msg.Action,
		Stage:  stage,
		Reason: reason,
		Detail: cause.Error(),
	}
	var written *mailbox.Rejection
	err := p.retry(ctx, "reject", a, func() error {
		var rejectErr error
		written, rejectErr = p.store.Reject(c, rec)
		return rejectErr
	})
	if err != nil {
		return p.abandon(ctx, c, msg.ID, "reject", err, summary)
	}
	summary.Rejected++

	p.logger.Info("Message rejected", "mailbox", a.Name(), "id", msg.ID, "reason", reason, "record", written.Path)

	if err := p.store.Advance(ctx, a, msg.ID, true); err != nil {
		p.logger.Error("Failed to advance cursor", "mailbox", a.Name(), "id", msg.ID, "error", err)
	}

	// Decode failures have no trustworthy sender; replays were answered already
	if stage == mailbox.StageDecode || msg.IsReply() || errors.Is(cause, validator.ErrStaleID) || reason == "Misaddressed" {
		return nil
	}
	p.reply(ctx, msg, p.errorReply(msg, reason, cause), summary)
	return nil
}

// abandon is the fatal path: the claim stays staged, the mailbox is halted
// until an operator resumes it, and the error is returned.
func (p *Poller) abandon(ctx context.Context, c *mailbox.Claim, id, op string, cause error, summary *Summary) error {
	if err := p.store.Abandon(c); err != nil && !errors.Is(err, mailbox.ErrClaimClosed) {
		p.logger.Error("Failed to release claim", "mailbox", c.Address.Name(), "error", err)
	}
	return p.escalate(c.Address, id, op, cause, summary)
}

func (p *Poller) escalate(a mailbox.Address, id, op string, cause error, summary *Summary) error {
	summary.Halted++
	p.setState(StateErrorHandling, "mailbox", a.Name(), "op", op)
	p.logger.Fatal("Halting mailbox after repeated I/O failures",
		"mailbox", a.Name(),
		"id", id,
		"op", op,
		"error", cause,
	)

	if err := p.store.Halt(a, mailbox.HaltRecord{ID: id, Reason: fmt.Sprintf("%s: %v", op, cause)}); err != nil {
		p.logger.Fatal("Failed to write halt marker", "mailbox", a.Name(), "error", err)
	}
	return fmt.Errorf("mailbox %s halted during %s: %w", a, op, cause)
}

// reply sends r to the counterpart mailbox, spooling it when that mailbox
// is busy. Reply faults never affect the already archived message.
func (p *Poller) reply(ctx context.Context, in message.Message, r message.Message, summary *Summary) {
	if !p.replies {
		return
	}

	a := mailbox.AddressOf(r)
	p.setState(StateReplying, "mailbox", a.Name(), "id", r.ID)

	var spooled bool
	err := p.retry(ctx, "reply", a, func() error {
		var deliverErr error
		spooled, deliverErr = p.store.DeliverOrSpool(ctx, r)
		return deliverErr
	})
	if err != nil {
		summary.Halted++
		p.logger.Fatal("Reply could not be delivered",
			"mailbox", a.Name(),
			"in_reply_to", in.ID,
			"error", err,
		)
		if haltErr := p.store.Halt(mailbox.AddressOf(in), mailbox.HaltRecord{
			ID:     in.ID,
			Reason: fmt.Sprintf("reply: %v", err),
		}); haltErr != nil {
			p.logger.Fatal("Failed to write halt marker", "mailbox", mailbox.AddressOf(in).Name(), "error", haltErr)
		}
		return
	}

	if spooled {
		summary.Deferred++
		p.logger.Info("Reply deferred, mailbox busy", "mailbox", a.Name(), "id", r.ID)
		return
	}
	p.logger.Debug("Reply delivered", "mailbox", a.Name(), "id", r.ID)
}

func (p *Poller) okReply(in message.Message, outcome action.Outcome) message.Message {
	payload := map[string]any{}
	for k, v := range outcome.Details {
		payload[k] = v
	}
	payload["status"] = outcome.Status
	payload["message"] = outcome.Message
	payload["in_reply_to"] = in.ID

	return p.newReply(in, payload)
}

func (p *Poller) errorReply(in message.Message, reason string, cause error) message.Message {
	return p.newReply(in, map[string]any{
		"status":      "error",
		"error":       reason,
		"message":     cause.Error(),
		"in_reply_to": in.ID,
	})
}

func (p *Poller) newReply(in message.Message, payload map[string]any) message.Message {
	return message.Message{
		ID:      p.replyID(in),
		From:    p.identity,
		For:     in.From,
		Action:  message.ReplyAction(in.Action),
		Payload: payload,
		Body:    "Response to " + in.Action,
	}
}

// replyID is the current time, forced strictly after both the incoming id
// and every reply id issued before.
func (p *Poller) replyID(in message.Message) string {
	ts := p.now().UTC()
	if inTime, err := in.Time(); err == nil && !ts.After(inTime) {
		ts = inTime.Add(time.Microsecond)
	}
	if !ts.After(p.lastReply) {
		ts = p.lastReply.Add(time.Microsecond)
	}
	p.lastReply = ts
	return message.NewID(ts)
}
