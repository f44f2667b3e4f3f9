package mailbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"gopkg.in/yaml.v3"

	"github.com/dvanosdol88/ai-assistants/internal/core/message"
)

func (m *Manager) cursorPath(a Address) string {
	return filepath.Join(m.dir, StateDir, a.Name()+".yaml")
}

func (m *Manager) haltPath(a Address) string {
	return filepath.Join(m.dir, StateDir, a.Name()+".halt")
}

// Cursor returns the processing state of a mailbox. A mailbox that has
// never been processed yields the zero Cursor.
func (m *Manager) Cursor(ctx context.Context, a Address) (Cursor, error) {
	c, err := m.cursors.Read(ctx, m.cursorPath(a))
	if err != nil {
		if os.IsNotExist(err) {
			return Cursor{}, nil
		}
		return Cursor{}, fmt.Errorf("failed to read cursor for %s: %w", a, err)
	}
	return *c, nil
}

// Advance records the outcome of one message. LastID only moves forward:
// an id that is empty, unparsable or not later than the current one leaves
// it unchanged while the counters still update.
func (m *Manager) Advance(ctx context.Context, a Address, id string, rejected bool) error {
	return m.cursors.Update(ctx, m.cursorPath(a), func(c *Cursor) error {
		if rejected {
			c.Rejected++
		} else {
			c.Processed++
		}

		if ts, err := (message.Message{ID: id}).Time(); err == nil {
			advance := true
			c.Last().WhenSome(func(prev time.Time) {
				advance = ts.After(prev)
			})
			if advance {
				c.LastID = id
			}
		}

		c.UpdatedAt = m.now().UTC()
		return nil
	})
}

// Halt stops processing of a mailbox until Resume is called. The marker is
// written under its own context so it lands even after the run was cancelled.
func (m *Manager) Halt(a Address, rec HaltRecord) error {
	if rec.HaltedAt.IsZero() {
		rec.HaltedAt = m.now().UTC()
	}
	if err := m.halts.Write(context.Background(), m.haltPath(a), &rec); err != nil {
		return fmt.Errorf("failed to halt mailbox %s: %w", a, err)
	}
	return nil
}

// Halted returns the halt record of a mailbox, if it is halted
func (m *Manager) Halted(a Address) (fn.Option[HaltRecord], error) {
	data, err := os.ReadFile(m.haltPath(a))
	if err != nil {
		if os.IsNotExist(err) {
			return fn.None[HaltRecord](), nil
		}
		return fn.None[HaltRecord](), fmt.Errorf("failed to read halt marker for %s: %w", a, err)
	}

	var rec HaltRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		// An unreadable marker still halts the mailbox
		rec.Reason = "unreadable halt marker"
	}
	return fn.Some(rec), nil
}

// IsHalted reports whether a mailbox is halted. Read errors count as halted.
func (m *Manager) IsHalted(a Address) bool {
	rec, err := m.Halted(a)
	return err != nil || rec.IsSome()
}

// Resume clears the halt marker of a mailbox
func (m *Manager) Resume(ctx context.Context, a Address) error {
	path := m.haltPath(a)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", a, ErrNotHalted)
		}
		return fmt.Errorf("failed to resume mailbox %s: %w", a, err)
	}
	if err := m.halts.Delete(ctx, path); err != nil {
		return fmt.Errorf("failed to resume mailbox %s: %w", a, err)
	}
	return nil
}
