package config

import (
	"fmt"

	"github.com/dvanosdol88/ai-assistants/internal/core/mailbox"
)

// ValidateConfig checks the rules the schema cannot express
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	if err := mailbox.ValidateIdentifier(config.Identity); err != nil {
		return fmt.Errorf("identity: %w", err)
	}

	if config.Poll.Interval < 0 {
		return fmt.Errorf("poll.interval must not be negative")
	}
	if config.Poll.SettleTime < 0 {
		return fmt.Errorf("poll.settle_time must not be negative")
	}

	if err := ValidateRetry(config.Retry); err != nil {
		return fmt.Errorf("retry: %w", err)
	}

	return nil
}

// ValidateRetry checks that the backoff bounds are consistent
func ValidateRetry(retry RetryConfig) error {
	if retry.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must not be negative")
	}
	if retry.InitialBackoff < 0 || retry.MaxBackoff < 0 {
		return fmt.Errorf("backoff durations must not be negative")
	}
	if retry.MaxBackoff > 0 && retry.InitialBackoff > retry.MaxBackoff {
		return fmt.Errorf("initial_backoff %s exceeds max_backoff %s", retry.InitialBackoff, retry.MaxBackoff)
	}
	return nil
}
