package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
			errMsg:  "config is nil",
		},
		{
			name:    "default config",
			config:  DefaultConfig("jules"),
			wantErr: false,
		},
		{
			name:    "empty identity",
			config:  &Config{Version: "1.0"},
			wantErr: true,
			errMsg:  "identity",
		},
		{
			name:    "identity containing the slot separator",
			config:  &Config{Version: "1.0", Identity: "a-to-b"},
			wantErr: true,
			errMsg:  "identity",
		},
		{
			name: "negative settle time",
			config: &Config{
				Version:  "1.0",
				Identity: "jules",
				Poll:     PollConfig{SettleTime: -time.Second},
			},
			wantErr: true,
			errMsg:  "poll.settle_time must not be negative",
		},
		{
			name: "initial backoff above max",
			config: &Config{
				Version:  "1.0",
				Identity: "jules",
				Retry:    RetryConfig{InitialBackoff: time.Second, MaxBackoff: time.Millisecond},
			},
			wantErr: true,
			errMsg:  "retry: initial_backoff 1s exceeds max_backoff 1ms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
