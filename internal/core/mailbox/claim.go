package mailbox

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lightningnetwork/lnd/fn/v2"
	"gopkg.in/yaml.v3"

	"github.com/dvanosdol88/ai-assistants/internal/core/message"
	"github.com/dvanosdol88/ai-assistants/internal/filemanager"
)

// Claim atomically moves the pending content of a mailbox into staging and
// returns it. Of any number of concurrent callers, exactly one receives a
// given content; the rest get None. Claim never waits on a lock.
//
// The staged file is guarded by a lock held for the lifetime of the claim.
// If the owning process dies, the lock is released by the OS and Recover
// hands the staged content to the next poller.
func (m *Manager) Claim(a Address) (fn.Option[*Claim], error) {
	none := fn.None[*Claim]()
	if err := a.Validate(); err != nil {
		return none, err
	}

	token := newToken()
	stem := m.stagingStem(a, token)

	lock, ok, err := filemanager.TryLock(stem + ".lock")
	if err != nil {
		return none, fmt.Errorf("failed to lock staging for %s: %w", a, err)
	}
	if !ok {
		return none, fmt.Errorf("staging lock for token %s is already held", token)
	}

	staged := stem + slotExt
	if err := filemanager.MoveExclusive(m.SlotPath(a), staged); err != nil {
		_ = lock.Release()
		if isNotExist(err) {
			return none, nil
		}
		return none, fmt.Errorf("failed to claim mailbox %s: %w", a, err)
	}

	raw, err := os.ReadFile(staged)
	if err != nil {
		// Leave the staged file for Recover
		_ = lock.Unlock()
		return none, fmt.Errorf("failed to read claimed message %s: %w", a, err)
	}
	if len(raw) == 0 {
		_ = os.Remove(staged)
		_ = lock.Release()
		return none, nil
	}

	m.logger.Debug("Mailbox claimed", "mailbox", a.Name(), "token", token, "bytes", len(raw))
	return fn.Some(&Claim{
		Token:     token,
		Address:   a,
		Raw:       raw,
		ClaimedAt: m.now(),
		staged:    staged,
		lock:      lock,
	}), nil
}

// Recover takes over staged claims addressed to recipient whose owner is
// gone. Claims still held by a live process are skipped.
func (m *Manager) Recover(recipient string) ([]*Claim, error) {
	stagingDir := filepath.Join(m.dir, StagingDir)
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read staging directory: %w", err)
	}

	var claims []*Claim
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), slotExt) {
			continue
		}
		stemName := strings.TrimSuffix(entry.Name(), slotExt)
		pair, token, ok := strings.Cut(stemName, keySeparator)
		if !ok {
			continue
		}
		a, ok := ParseAddress(pair)
		if !ok || a.For != recipient {
			continue
		}

		stem := filepath.Join(stagingDir, stemName)
		lock, locked, err := filemanager.TryLock(stem + ".lock")
		if err != nil {
			m.logger.Warn("Failed to inspect staged claim", "mailbox", a.Name(), "token", token, "error", err)
			continue
		}
		if !locked {
			continue
		}

		staged := stem + slotExt
		raw, err := os.ReadFile(staged)
		switch {
		case isNotExist(err):
			// Finalized by its owner after we listed it
			_ = lock.Release()
			continue
		case err != nil:
			_ = lock.Unlock()
			m.logger.Warn("Failed to read staged claim", "mailbox", a.Name(), "token", token, "error", err)
			continue
		case len(raw) == 0:
			_ = os.Remove(staged)
			_ = lock.Release()
			continue
		}

		m.logger.Info("Recovered staged claim", "mailbox", a.Name(), "token", token)
		claims = append(claims, &Claim{
			Token:     token,
			Address:   a,
			Raw:       raw,
			ClaimedAt: m.now(),
			Recovered: true,
			staged:    staged,
			lock:      lock,
		})
	}

	sort.Slice(claims, func(i, j int) bool {
		return claims[i].Token < claims[j].Token
	})
	return claims, nil
}

// ArchivePath returns where a message with id addressed to recipient is archived
func (m *Manager) ArchivePath(id, recipient string) string {
	return filepath.Join(m.dir, ArchiveDir, message.FileKey(id)+keySeparator+recipient+slotExt)
}

// IsArchived reports whether an archive entry exists for id and recipient
func (m *Manager) IsArchived(id, recipient string) bool {
	_, err := os.Stat(m.ArchivePath(id, recipient))
	return err == nil
}

// Archive records the claimed bytes under the message id and finalizes the
// claim. An existing entry for the same id fails with ErrArchiveCollision;
// archive entries are never overwritten. Archive may be retried after an
// I/O error, including one raised while finalizing an entry that was
// already written.
func (m *Manager) Archive(c *Claim, msg message.Message) (string, error) {
	path := m.ArchivePath(msg.ID, c.Address.For)
	if c.lock == nil {
		if c.published == path {
			return path, nil
		}
		return "", ErrClaimClosed
	}

	if err := m.publish(c, path, c.Raw); err != nil {
		if errors.Is(err, filemanager.ErrExists) {
			return "", fmt.Errorf("%s: %w", path, ErrArchiveCollision)
		}
		return "", fmt.Errorf("failed to archive %s: %w", msg.ID, err)
	}

	if err := m.finish(c); err != nil {
		return path, err
	}

	m.logger.Debug("Message archived", "mailbox", c.Address.Name(), "id", msg.ID, "path", path)
	return path, nil
}

// Reject writes an error record for the claimed content and finalizes the
// claim. Like Archive, it may be retried once the record is written.
func (m *Manager) Reject(c *Claim, rec Rejection) (*Rejection, error) {
	name := strings.Join([]string{
		message.FileKey(message.NewID(c.ClaimedAt)),
		c.Address.For,
		c.Token,
	}, keySeparator) + ".yaml"
	path := filepath.Join(m.dir, RejectedDir, name)

	if c.lock == nil {
		if c.published == path {
			rec.Mailbox = c.Address.Name()
			rec.Raw = string(c.Raw)
			rec.Path = path
			return &rec, nil
		}
		return nil, ErrClaimClosed
	}

	if rec.RejectedAt.IsZero() {
		rec.RejectedAt = m.now().UTC()
	}
	rec.Mailbox = c.Address.Name()
	rec.Raw = string(c.Raw)

	data, err := yaml.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rejection: %w", err)
	}

	rec.Path = path

	if err := m.publish(c, rec.Path, data); err != nil {
		return nil, fmt.Errorf("failed to write rejection: %w", err)
	}
	if err := m.finish(c); err != nil {
		return &rec, err
	}

	m.logger.Debug("Message rejected", "mailbox", c.Address.Name(), "reason", rec.Reason, "path", rec.Path)
	return &rec, nil
}

// Abandon gives up the claim without finalizing it. The staged content
// stays in place and is picked up by a later Recover.
func (m *Manager) Abandon(c *Claim) error {
	if c.lock == nil {
		return ErrClaimClosed
	}
	err := c.lock.Unlock()
	c.lock = nil
	return err
}

// publish writes the terminal record of a claim exactly once. A retry
// after a later step failed is a no-op, and a recovered claim whose
// previous owner already wrote identical content is accepted.
func (m *Manager) publish(c *Claim, path string, data []byte) error {
	if c.published == path {
		return nil
	}

	err := filemanager.CreateExclusive(path, data, 0o644)
	if errors.Is(err, filemanager.ErrExists) && c.Recovered {
		existing, readErr := os.ReadFile(path)
		if readErr == nil && bytes.Equal(existing, data) {
			m.logger.Info("Recovered claim was already recorded", "mailbox", c.Address.Name(), "path", path)
			err = nil
		}
	}
	if err == nil {
		c.published = path
	}
	return err
}

// finish clears the staged copy and drops the claim lock. A failure here
// leaves the terminal record in place, so Archive and Reject can be retried
// against the same claim.
func (m *Manager) finish(c *Claim) error {
	if err := os.Remove(c.staged); err != nil && !isNotExist(err) {
		return fmt.Errorf("failed to clear staged claim: %w", err)
	}
	err := c.lock.Release()
	c.lock = nil
	if err != nil {
		return fmt.Errorf("failed to release claim lock: %w", err)
	}
	return nil
}

func (m *Manager) stagingStem(a Address, token string) string {
	return filepath.Join(m.dir, StagingDir, a.Name()+keySeparator+token)
}
