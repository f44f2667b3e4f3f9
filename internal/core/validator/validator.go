// Package validator checks decoded messages against the action catalog and
// the mailbox cursor before they are dispatched. Validation never touches
// the filesystem; cursor state is supplied by the caller.
package validator

import (
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/dvanosdol88/ai-assistants/internal/core/action"
	"github.com/dvanosdol88/ai-assistants/internal/core/message"
)

// Catalog is the read side of the action registry
type Catalog interface {
	Lookup(name string) (action.Handler, bool)
}

// Validator validates messages against a catalog of actions.
type Validator struct {
	catalog Catalog
}

// New creates a validator backed by catalog
func New(catalog Catalog) *Validator {
	return &Validator{catalog: catalog}
}

// Validate checks msg in order: id format, id freshness against last,
// action membership, then payload shape. It returns nil or a *ValidationError.
func (v *Validator) Validate(msg message.Message, last fn.Option[time.Time]) error {
	ts, err := msg.Time()
	if err != nil {
		return &ValidationError{Kind: KindInvalidID, Reason: err.Error()}
	}

	if err := checkFresh(ts, last); err != nil {
		return err
	}

	h, ok := v.catalog.Lookup(msg.Action)
	if !ok {
		return &ValidationError{
			Kind:   KindUnknownAction,
			Reason: fmt.Sprintf("no handler registered for %q", msg.Action),
		}
	}

	return checkPayload(h.Fields(), msg.Payload)
}

// Validate is a convenience wrapper around New(catalog).Validate.
func Validate(msg message.Message, last fn.Option[time.Time], catalog Catalog) error {
	return New(catalog).Validate(msg, last)
}

func checkFresh(ts time.Time, last fn.Option[time.Time]) error {
	var stale error
	last.WhenSome(func(prev time.Time) {
		if !ts.After(prev) {
			stale = &ValidationError{
				Kind: KindStaleID,
				Reason: fmt.Sprintf("id %s is not after last processed id %s",
					message.NewID(ts), message.NewID(prev)),
			}
		}
	})
	return stale
}

func checkPayload(fields []action.Field, payload map[string]any) error {
	for _, f := range fields {
		value, present := payload[f.Name]
		if !present || value == nil {
			if f.Required {
				return &ValidationError{Kind: KindInvalidPayload, Field: f.Name, Reason: "required field is missing"}
			}
			continue
		}
		if !f.Matches(value) {
			return &ValidationError{
				Kind:   KindInvalidPayload,
				Field:  f.Name,
				Reason: fmt.Sprintf("expected %s, got %T", f.Type, value),
			}
		}
	}
	return nil
}
