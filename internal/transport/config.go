package transport

import (
	"math/rand"
	"time"

	"github.com/editorctl/editorctl/internal/protocol/frame"
)

// BackoffConfig defines reconnect backoff behavior. A fixed reconnect
// interval is expressed as Multiplier 1.0 with Jitter off.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Delay returns the redial delay for attempt N (1-based). Growth is
// geometric up to MaxDelay; jitter scales the result by [0.5, 1.5).
func (b BackoffConfig) Delay(attempt int, rng *rand.Rand) time.Duration {
	if b.InitialDelay <= 0 {
		return 0
	}
	mult := b.Multiplier
	if mult < 1.0 {
		mult = 1.0
	}
	d := float64(b.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= mult
		if b.MaxDelay > 0 && d >= float64(b.MaxDelay) {
			d = float64(b.MaxDelay)
			break
		}
	}
	if b.Jitter && rng != nil {
		d *= 0.5 + rng.Float64()
	}
	return time.Duration(d)
}

// Config defines transport reliability defaults.
type Config struct {
	ConnectTimeout time.Duration
	Backoff        BackoffConfig
	Limits         frame.Limits
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 5 * time.Second,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
		Limits: frame.DefaultLimits(),
	}
}

func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff = def.Backoff
	}
	if c.Limits.MaxPayloadBytes == 0 {
		c.Limits = def.Limits
	}
	return c
}
