package retry

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialBackoff grows the delay between connection attempts by a fixed
// multiplier, capped at maxDelay, with a small random band so a batch of
// workers reconnecting at once does not hammer the server in lockstep.
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64

	// maxAttempts of -1 retries without limit; 0 disables retries.
	maxAttempts int

	// jitter is the width of the random band, 0.1 meaning +/- 10%.
	jitter float64

	// jitterFunc supplies values in [0, 1); tests pin it for determinism.
	jitterFunc func() float64
}

// BackoffOption is a functional option for configuring ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

// WithInitialDelay sets the initial delay for the first retry attempt.
func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.initialDelay = d
	}
}

// WithMaxDelay sets the maximum delay between retry attempts.
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.maxDelay = d
	}
}

// WithMultiplier sets the factor by which delay increases between attempts.
func WithMultiplier(m float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.multiplier = m
	}
}

// WithJitter sets the jitter factor (0.0-1.0) to add randomness to delays.
func WithJitter(j float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.jitter = j
	}
}

// WithJitterFunc sets a custom function for generating random jitter values.
func WithJitterFunc(f func() float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.jitterFunc = f
	}
}

// NewExponentialBackoff creates a backoff strategy with the defaults the
// connector uses: 100ms initial delay, doubling, capped at 30s, 10% jitter.
func NewExponentialBackoff(maxAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: 100 * time.Millisecond,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
		maxAttempts:  maxAttempts,
		jitter:       0.1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NextDelay returns the wait before the given retry attempt, 0-based.
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delayMs := float64(b.initialDelay.Milliseconds()) * math.Pow(b.multiplier, float64(attempt))

	if delayMs > float64(b.maxDelay.Milliseconds()) {
		delayMs = float64(b.maxDelay.Milliseconds())
	}

	if b.jitter > 0 {
		jitterFunc := b.jitterFunc
		if jitterFunc == nil {
			jitterFunc = rand.Float64
		}
		// Map [0,1) to [-1,1) and scale into a band around the base delay.
		randomOffset := (jitterFunc() - 0.5) * 2.0
		delayMs *= 1.0 + (b.jitter * randomOffset)
	}

	return time.Duration(delayMs) * time.Millisecond
}

// MaxAttempts returns the configured retry budget.
func (b *ExponentialBackoff) MaxAttempts() int { return b.maxAttempts }

func (b *ExponentialBackoff) InitialDelay() time.Duration { return b.initialDelay }
func (b *ExponentialBackoff) MaxDelay() time.Duration     { return b.maxDelay }
func (b *ExponentialBackoff) Multiplier() float64         { return b.multiplier }
func (b *ExponentialBackoff) Jitter() float64             { return b.jitter }
