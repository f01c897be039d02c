package firehose

import (
	"math/rand"
	"time"
)

const (
	defaultBaseDelay = time.Second
	defaultMaxDelay  = 30 * time.Second
)

// ReconnectOptions configures a ReconnectPolicy. The zero value gives a 1s
// base delay, 30s cap, unlimited attempts, and jitter enabled.
type ReconnectOptions struct {
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	MaxAttempts   int // <=0 means unlimited
	DisableJitter bool
}

// ReconnectPolicy decides, after a stream disconnect, how long to wait before
// the next attempt and whether another attempt is permitted at all. It holds a
// single disposable counter and performs no I/O. The policy is owned by
// exactly one consumer loop and is not safe for concurrent mutation.
type ReconnectPolicy struct {
	baseDelay   time.Duration
	maxDelay    time.Duration
	maxAttempts int
	jitter      bool
	attempts    int
	rng         *rand.Rand
}

func NewReconnectPolicy(opts ReconnectOptions) *ReconnectPolicy {
	base := opts.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}
	max := opts.MaxDelay
	if max <= 0 {
		max = defaultMaxDelay
	}
	if max < base {
		max = base
	}
	return &ReconnectPolicy{
		baseDelay:   base,
		maxDelay:    max,
		maxAttempts: opts.MaxAttempts,
		jitter:      !opts.DisableJitter,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CalculateDelay returns min(baseDelay * 2^attempts, maxDelay). With jitter
// enabled the value is perturbed uniformly within ±25% of that nominal value,
// still clamped to [0, maxDelay]. The doubling stops at the cap, so the result
// stays finite for arbitrarily large attempt counts.
func (p *ReconnectPolicy) CalculateDelay() time.Duration {
	nominal := p.baseDelay
	for i := 0; i < p.attempts; i++ {
		nominal *= 2
		if nominal >= p.maxDelay || nominal <= 0 {
			nominal = p.maxDelay
			break
		}
	}
	if !p.jitter {
		return nominal
	}
	factor := 0.75 + p.rng.Float64()*0.5
	delay := time.Duration(float64(nominal) * factor)
	if delay > p.maxDelay {
		delay = p.maxDelay
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}

// RecordAttempt increments the attempt counter. Overflow protection lives in
// CalculateDelay, which caps the exponent, so there is no upper bound here.
func (p *ReconnectPolicy) RecordAttempt() {
	p.attempts++
}

// ShouldRetry reports whether another attempt is permitted.
func (p *ReconnectPolicy) ShouldRetry() bool {
	if p.maxAttempts <= 0 {
		return true
	}
	return p.attempts < p.maxAttempts
}

// Reset clears the counter. Callers invoke it after a successful reconnection.
func (p *ReconnectPolicy) Reset() {
	p.attempts = 0
}

// Attempts returns the current counter, for observability.
func (p *ReconnectPolicy) Attempts() int {
	return p.attempts
}
