package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// The connector retries with the configuration exercised here; a runaway
// delay would stall an import batch far past its file timeout, so the cap
// has to hold for any attempt number.
func TestNextDelay_CapHoldsForAllAttempts(t *testing.T) {
	b := NewExponentialBackoff(100,
		WithInitialDelay(100*time.Millisecond),
		WithMultiplier(2.0),
		WithMaxDelay(1*time.Minute),
		WithJitter(0),
	)

	for attempt := 0; attempt <= 100; attempt++ {
		delay := b.NextDelay(attempt)
		assert.LessOrEqual(t, delay, 1*time.Minute, "attempt %d", attempt)
		if attempt > 20 {
			assert.Equal(t, 1*time.Minute, delay, "attempt %d should sit at the cap", attempt)
		}
	}
}

func TestNextDelay_CapHoldsWithAggressiveMultiplier(t *testing.T) {
	b := NewExponentialBackoff(50,
		WithInitialDelay(1*time.Second),
		WithMultiplier(3.0),
		WithMaxDelay(1*time.Minute),
		WithJitter(0),
	)

	// 1s * 3^10 is about 16 hours uncapped.
	assert.Equal(t, 1*time.Minute, b.NextDelay(10))
	for attempt := 5; attempt <= 50; attempt++ {
		assert.LessOrEqual(t, b.NextDelay(attempt), 1*time.Minute, "attempt %d", attempt)
	}
}

func TestConnectRetryBudget(t *testing.T) {
	// Matches the strategy the connector builds: three attempts starting at
	// 100ms. A worker blocked on a flaky connection should give up after
	// well under a second of waiting.
	b := NewExponentialBackoff(3,
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(1*time.Minute),
		WithJitter(0),
	)

	total := time.Duration(0)
	for attempt := 0; attempt < b.MaxAttempts(); attempt++ {
		total += b.NextDelay(attempt)
	}
	assert.Equal(t, 700*time.Millisecond, total)
}
