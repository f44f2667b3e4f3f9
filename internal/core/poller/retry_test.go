package poller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_Delay(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}

	for i := 0; i < 50; i++ {
		first := policy.Delay(0)
		assert.GreaterOrEqual(t, first, 80*time.Millisecond)
		assert.LessOrEqual(t, first, 120*time.Millisecond)

		third := policy.Delay(2)
		assert.GreaterOrEqual(t, third, 320*time.Millisecond)
		assert.LessOrEqual(t, third, 480*time.Millisecond)

		assert.LessOrEqual(t, policy.Delay(20), time.Second)
	}
}

func TestRetryPolicy_ZeroBackoff(t *testing.T) {
	assert.Equal(t, time.Duration(0), RetryPolicy{MaxAttempts: 3}.Delay(4))
}
