package config

import "time"

// Config represents the handoff configuration of one agent
type Config struct {
	Version string `yaml:"version"`
	// Identity is the name this agent receives messages under
	Identity string `yaml:"identity"`
	// SharedDir is the mailbox directory, relative to the project root
	SharedDir string `yaml:"shared_dir,omitempty"`
	// Workspace is where add_file writes, relative to the project root
	Workspace   string        `yaml:"workspace,omitempty"`
	Poll        PollConfig    `yaml:"poll,omitempty"`
	Retry       RetryConfig   `yaml:"retry,omitempty"`
	Reply       ReplyConfig   `yaml:"reply,omitempty"`
	Actions     ActionsConfig `yaml:"actions,omitempty"`
	LockTimeout time.Duration `yaml:"lock_timeout,omitempty"`
}

// PollConfig controls the continuous loop
type PollConfig struct {
	Interval time.Duration `yaml:"interval,omitempty"`
	// SettleTime is how long a slot must go unmodified before it is
	// claimed, so that a sender still writing it is not cut off
	SettleTime time.Duration `yaml:"settle_time,omitempty"`
}

// RetryConfig bounds the backoff applied to archive and reply I/O faults
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts,omitempty"`
	InitialBackoff time.Duration `yaml:"initial_backoff,omitempty"`
	MaxBackoff     time.Duration `yaml:"max_backoff,omitempty"`
}

// ReplyConfig controls replies to processed messages
type ReplyConfig struct {
	// Enabled is a pointer so that an explicit false survives defaulting
	Enabled *bool `yaml:"enabled,omitempty"`
}

// IsEnabled reports whether replies are sent. Replies are on unless disabled.
func (r ReplyConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// ActionsConfig configures the built-in actions
type ActionsConfig struct {
	AddFile AddFileConfig `yaml:"add_file,omitempty"`
}

// AddFileConfig configures add_file
type AddFileConfig struct {
	// AllowOverwrite lets messages replace existing files with overwrite: true
	AllowOverwrite bool `yaml:"allow_overwrite,omitempty"`
}

// Defaults
const (
	DefaultSharedDir      = "shared"
	DefaultPollInterval   = 10 * time.Second
	DefaultSettleTime     = time.Second
	DefaultMaxAttempts    = 5
	DefaultInitialBackoff = 200 * time.Millisecond
	DefaultMaxBackoff     = 5 * time.Second
	DefaultLockTimeout    = 5 * time.Second
)

// DefaultConfig returns the default configuration for identity
func DefaultConfig(identity string) *Config {
	enabled := true
	return &Config{
		Version:   "1.0",
		Identity:  identity,
		SharedDir: DefaultSharedDir,
		Poll: PollConfig{
			Interval:   DefaultPollInterval,
			SettleTime: DefaultSettleTime,
		},
		Retry: RetryConfig{
			MaxAttempts:    DefaultMaxAttempts,
			InitialBackoff: DefaultInitialBackoff,
			MaxBackoff:     DefaultMaxBackoff,
		},
		Reply: ReplyConfig{
			Enabled: &enabled,
		},
		LockTimeout: DefaultLockTimeout,
	}
}
