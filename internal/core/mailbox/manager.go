package mailbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/dvanosdol88/ai-assistants/internal/core/logger"
	"github.com/dvanosdol88/ai-assistants/internal/core/message"
	"github.com/dvanosdol88/ai-assistants/internal/filemanager"
)

// Directory names below the shared directory
const (
	ArchiveDir  = "archive"
	RejectedDir = "rejected"
	StagingDir  = ".staging"
	OutboxDir   = ".outbox"
	StateDir    = ".state"
	LocksDir    = ".locks"
)

const slotExt = ".md"

// Manager is the mailbox store over a shared directory. All reads and writes
// of mailbox files go through it.
type Manager struct {
	dir         string
	lockTimeout time.Duration
	settle      time.Duration
	cursors     *filemanager.Manager[Cursor]
	halts       *filemanager.Manager[HaltRecord]
	logger      logger.Logger
	now         func() time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(m *Manager) {
		m.logger = log
	}
}

// WithLockTimeout bounds how long producers wait for a mailbox lock
func WithLockTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.lockTimeout = d
	}
}

// WithSettleTime sets how long a slot must go unmodified before Pending and
// Peek report it. Senders that write the slot in place are not claimed
// mid-write. Zero reports slots as soon as they are non-empty.
func WithSettleTime(d time.Duration) Option {
	return func(m *Manager) {
		m.settle = d
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a mailbox store rooted at the shared directory dir
func NewManager(dir string, opts ...Option) *Manager {
	m := &Manager{
		dir:         dir,
		lockTimeout: 5 * time.Second,
		logger:      logger.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.cursors = filemanager.NewManagerWithTimeout[Cursor](m.lockTimeout)
	m.halts = filemanager.NewManagerWithTimeout[HaltRecord](m.lockTimeout)
	return m
}

// Dir returns the shared directory
func (m *Manager) Dir() string {
	return m.dir
}

// Initialize creates the shared directory layout
func (m *Manager) Initialize() error {
	for _, sub := range []string{"", ArchiveDir, RejectedDir, StagingDir, OutboxDir, StateDir, LocksDir} {
		if err := os.MkdirAll(filepath.Join(m.dir, sub), 0o755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", sub, err)
		}
	}
	return nil
}

// SlotPath returns the slot file of a mailbox
func (m *Manager) SlotPath(a Address) string {
	return filepath.Join(m.dir, a.Name()+slotExt)
}

func (m *Manager) lockPath(a Address) string {
	return filepath.Join(m.dir, LocksDir, a.Name()+".lock")
}

// Pending lists the mailboxes addressed to recipient that hold a message,
// ordered by sender.
func (m *Manager) Pending(recipient string) ([]Address, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read shared directory: %w", err)
	}

	var pending []Address
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), slotExt) {
			continue
		}
		a, ok := ParseAddress(strings.TrimSuffix(entry.Name(), slotExt))
		if !ok || a.For != recipient {
			continue
		}
		info, err := entry.Info()
		if err != nil || !m.settled(info) {
			continue
		}
		pending = append(pending, a)
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].From < pending[j].From
	})
	return pending, nil
}

// Peek returns the content of a mailbox without claiming it. An absent or
// empty slot yields None, and so does one still being written: modified
// within the settle time or changing size while it is read.
func (m *Manager) Peek(a Address) (fn.Option[[]byte], error) {
	none := fn.None[[]byte]()
	slot := m.SlotPath(a)

	info, err := os.Stat(slot)
	if err != nil {
		if os.IsNotExist(err) {
			return none, nil
		}
		return none, fmt.Errorf("failed to inspect mailbox %s: %w", a, err)
	}
	if !m.settled(info) {
		return none, nil
	}

	data, err := os.ReadFile(slot)
	if err != nil {
		if os.IsNotExist(err) {
			return none, nil
		}
		return none, fmt.Errorf("failed to read mailbox %s: %w", a, err)
	}
	if int64(len(data)) != info.Size() {
		m.logger.Debug("Mailbox changed while reading", "mailbox", a.Name())
		return none, nil
	}
	return fn.Some(data), nil
}

// settled reports whether a slot holds content its writer is done with
func (m *Manager) settled(info os.FileInfo) bool {
	if info.Size() == 0 {
		return false
	}
	return m.settle <= 0 || m.now().Sub(info.ModTime()) >= m.settle
}

// Deliver writes msg into the slot addressed by its from/for fields. If
// the slot already holds a message, ErrMailboxBusy is returned and the
// pending content is left untouched.
func (m *Manager) Deliver(ctx context.Context, msg message.Message) error {
	a := AddressOf(msg)
	if err := a.Validate(); err != nil {
		return err
	}

	data, err := message.Encode(msg)
	if err != nil {
		return err
	}

	return m.deliverRaw(ctx, a, data)
}

// AppendReply writes a reply to the counterpart mailbox. It fails with
// ErrMailboxBusy when that mailbox still holds a message.
func (m *Manager) AppendReply(ctx context.Context, reply message.Message) error {
	return m.Deliver(ctx, reply)
}

func (m *Manager) deliverRaw(ctx context.Context, a Address, data []byte) error {
	lock, err := filemanager.AcquireLock(ctx, m.lockPath(a), m.lockTimeout)
	if err != nil {
		return fmt.Errorf("failed to lock mailbox %s: %w", a, err)
	}
	defer func() { _ = lock.Unlock() }()

	slot := m.SlotPath(a)
	info, err := os.Stat(slot)
	switch {
	case err == nil && info.Size() > 0:
		return fmt.Errorf("%s: %w", a, ErrMailboxBusy)
	case err != nil && !os.IsNotExist(err):
		return fmt.Errorf("failed to inspect mailbox %s: %w", a, err)
	}

	// The rename publishes complete content, so the slot is stamped as
	// already settled
	if err := filemanager.WriteFileAtomicAt(slot, data, 0o644, m.settledStamp()); err != nil {
		return fmt.Errorf("failed to write mailbox %s: %w", a, err)
	}

	m.logger.Debug("Message delivered", "mailbox", a.Name(), "bytes", len(data))
	return nil
}

// settledStamp is a modification time that satisfies the settle check
func (m *Manager) settledStamp() time.Time {
	if m.settle <= 0 {
		return time.Time{}
	}
	return m.now().Add(-m.settle)
}

func newToken() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// isNotExist reports whether err means a mailbox file was already gone
func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
