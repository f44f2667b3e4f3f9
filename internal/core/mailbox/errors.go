package mailbox

import "errors"

var (
	// ErrMailboxBusy is returned when delivering to a slot that already holds a message
	ErrMailboxBusy = errors.New("mailbox busy")
	// ErrArchiveCollision is returned when an archive entry for the id already exists
	ErrArchiveCollision = errors.New("archive entry already exists")
	// ErrInvalidIdentifier is returned for sender or recipient names unusable in file names
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrNotHalted is returned by Resume when the mailbox is not halted
	ErrNotHalted = errors.New("mailbox is not halted")
	// ErrClaimClosed is returned when a claim is finalized twice
	ErrClaimClosed = errors.New("claim already finalized")
)
