package mailbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dvanosdol88/ai-assistants/internal/core/message"
	"github.com/dvanosdol88/ai-assistants/internal/filemanager"
)

// FlushResult reports what FlushOutbox did
type FlushResult struct {
	// Delivered counts spooled messages moved into their mailbox
	Delivered int
	// Deferred counts spooled messages still waiting for a free slot
	Deferred int
}

func (m *Manager) outboxDir(a Address) string {
	return filepath.Join(m.dir, OutboxDir, a.Name())
}

// Spool queues msg for delivery once its mailbox is free. Spooled messages
// of one mailbox are delivered in the order they were spooled.
func (m *Manager) Spool(msg message.Message) (string, error) {
	a := AddressOf(msg)
	if err := a.Validate(); err != nil {
		return "", err
	}

	data, err := message.Encode(msg)
	if err != nil {
		return "", err
	}

	// UUIDv7 names sort in creation order
	path := filepath.Join(m.outboxDir(a), newToken()+slotExt)
	if err := filemanager.CreateExclusive(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to spool message for %s: %w", a, err)
	}

	m.logger.Debug("Message spooled", "mailbox", a.Name(), "id", msg.ID, "path", path)
	return path, nil
}

// DeliverOrSpool delivers msg, or spools it when the mailbox is busy. It
// reports whether the message was spooled.
func (m *Manager) DeliverOrSpool(ctx context.Context, msg message.Message) (bool, error) {
	err := m.Deliver(ctx, msg)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrMailboxBusy) {
		return false, err
	}

	if _, err := m.Spool(msg); err != nil {
		return false, err
	}
	return true, nil
}

// Spooled lists the spooled messages of a mailbox, oldest first
func (m *Manager) Spooled(a Address) ([]string, error) {
	entries, err := os.ReadDir(m.outboxDir(a))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read outbox for %s: %w", a, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), slotExt) {
			continue
		}
		paths = append(paths, filepath.Join(m.outboxDir(a), entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// FlushOutbox re-attempts delivery of messages spooled by sender. At most
// one message per mailbox is delivered per call, since a slot holds one.
func (m *Manager) FlushOutbox(ctx context.Context, sender string) (FlushResult, error) {
	var result FlushResult

	entries, err := os.ReadDir(filepath.Join(m.dir, OutboxDir))
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, fmt.Errorf("failed to read outbox: %w", err)
	}

	var errs []error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		a, ok := ParseAddress(entry.Name())
		if !ok || a.From != sender {
			continue
		}

		paths, err := m.Spooled(a)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(paths) == 0 {
			continue
		}

		delivered, err := m.flushOne(ctx, a, paths[0])
		if err != nil {
			errs = append(errs, err)
		}
		if delivered {
			result.Delivered++
			result.Deferred += len(paths) - 1
		} else {
			result.Deferred += len(paths)
		}
	}

	return result, errors.Join(errs...)
}

func (m *Manager) flushOne(ctx context.Context, a Address, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read spooled message: %w", err)
	}

	if err := m.deliverRaw(ctx, a, data); err != nil {
		if errors.Is(err, ErrMailboxBusy) {
			return false, nil
		}
		return false, err
	}

	if err := os.Remove(path); err != nil && !isNotExist(err) {
		// Delivered but still spooled: the next flush would deliver it twice
		return true, fmt.Errorf("failed to remove spooled message %s: %w", path, err)
	}

	m.logger.Debug("Spooled message delivered", "mailbox", a.Name(), "path", path)
	return true, nil
}
