// Package mailbox provides the shared-directory mailbox store through which
// agents exchange messages. Each directed (sender, recipient) pair owns one
// slot file holding at most one pending message.
package mailbox

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/dvanosdol88/ai-assistants/internal/core/message"
	"github.com/dvanosdol88/ai-assistants/internal/filemanager"
)

const (
	// slotSeparator joins sender and recipient in slot file names
	slotSeparator = "-to-"
	// keySeparator joins the parts of archive, rejection and staging file names
	keySeparator = "--"
)

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateIdentifier checks that id can be embedded in mailbox file names.
func ValidateIdentifier(id string) error {
	if !identPattern.MatchString(id) || strings.Contains(id, slotSeparator) || strings.Contains(id, keySeparator) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return nil
}

// Address names the mailbox for one direction of a conversation
type Address struct {
	From string
	For  string
}

// Validate checks both identifiers
func (a Address) Validate() error {
	if err := ValidateIdentifier(a.From); err != nil {
		return err
	}
	return ValidateIdentifier(a.For)
}

// Name returns "<from>-to-<for>", the stem shared by every file of this mailbox
func (a Address) Name() string {
	return a.From + slotSeparator + a.For
}

// Reverse returns the counterpart mailbox
func (a Address) Reverse() Address {
	return Address{From: a.For, For: a.From}
}

func (a Address) String() string {
	return a.Name()
}

// AddressOf returns the mailbox a message is delivered to
func AddressOf(msg message.Message) Address {
	return Address{From: msg.From, For: msg.For}
}

// ParseAddress parses "<from>-to-<for>".
func ParseAddress(name string) (Address, bool) {
	from, to, ok := strings.Cut(name, slotSeparator)
	if !ok {
		return Address{}, false
	}
	a := Address{From: from, For: to}
	if a.Validate() != nil {
		return Address{}, false
	}
	return a, true
}

// Claim is a message moved out of its slot by exactly one consumer. It
// stays staged until Archive, Reject or Abandon is called.
type Claim struct {
	// Token uniquely identifies the claim (UUIDv7)
	Token string
	// Address is the mailbox the message was claimed from
	Address Address
	// Raw is the content of the slot at the time of the claim
	Raw []byte
	// ClaimedAt is when the content was staged, or recovered
	ClaimedAt time.Time
	// Recovered is set when the claim was taken over from a dead owner
	Recovered bool

	staged    string
	lock      *filemanager.Lock
	published string
}

// Cursor is the per-mailbox processing state.
type Cursor struct {
	// LastID is the id of the newest message processed or rejected
	LastID string `yaml:"last_id,omitempty"`
	// Processed counts archived messages
	Processed int `yaml:"processed"`
	// Rejected counts rejected messages
	Rejected int `yaml:"rejected"`
	// UpdatedAt is when the cursor last changed
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
}

// Last returns the timestamp of LastID, if any.
func (c Cursor) Last() fn.Option[time.Time] {
	if c.LastID == "" {
		return fn.None[time.Time]()
	}
	ts, err := message.Message{ID: c.LastID}.Time()
	if err != nil {
		return fn.None[time.Time]()
	}
	return fn.Some(ts)
}

// Stage is the pipeline step a rejection happened in
type Stage string

const (
	// StageDecode means the raw content could not be decoded
	StageDecode Stage = "decode"
	// StageValidate means the message failed validation
	StageValidate Stage = "validate"
	// StageDispatch means the handler returned a failure
	StageDispatch Stage = "dispatch"
	// StageArchive means the archive entry for the id already existed
	StageArchive Stage = "archive"
)

// Rejection is the error record written for a message that could not be
// processed.
type Rejection struct {
	RejectedAt time.Time `yaml:"rejected_at"`
	Mailbox    string    `yaml:"mailbox"`
	ID         string    `yaml:"id,omitempty"`
	Action     string    `yaml:"action,omitempty"`
	Stage      Stage     `yaml:"stage"`
	// Reason is the compact error code, e.g. MissingField(from)
	Reason string `yaml:"reason"`
	Detail string `yaml:"detail,omitempty"`
	Raw    string `yaml:"raw"`

	// Path is where the record was written. Not serialised.
	Path string `yaml:"-"`
}

// ArchiveEntry describes one archived message
type ArchiveEntry struct {
	// Key is the file-name form of the message id
	Key       string
	Recipient string
	Path      string
	Size      int64
	ModTime   time.Time
}

// HaltRecord is written when a mailbox is halted after repeated I/O failures.
type HaltRecord struct {
	HaltedAt time.Time `yaml:"halted_at"`
	ID       string    `yaml:"id,omitempty"`
	Reason   string    `yaml:"reason"`
}
