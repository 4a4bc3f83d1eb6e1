package config

import "time"

// Rate limit key strategies.
const (
	RateKeyUser = "user" // per authenticated user, falling back to the client IP
	RateKeyIP   = "ip"
)

// RateLimitConfig configures the Redis token bucket that guards the
// reservation write endpoints.  A bucket holds up to Capacity tokens and
// regains one every RefillEvery.
type RateLimitConfig struct {
	Enabled     bool
	Capacity    int
	RefillEvery time.Duration
	KeyStrategy string
	Prefix      string
}

// LoadRateLimitConfig reads the RATE_LIMIT_* variables and clamps them to
// usable values.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:     envBool("RATE_LIMIT_ENABLED", true),
		Capacity:    envInt("RATE_LIMIT_CAPACITY", 20),
		RefillEvery: envDur("RATE_LIMIT_REFILL_EVERY", 3*time.Second),
		KeyStrategy: envStr("RATE_LIMIT_KEY_STRATEGY", RateKeyUser),
		Prefix:      envStr("RATE_LIMIT_PREFIX", "cinema:rl"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillEvery <= 0 {
		cfg.RefillEvery = time.Second
	}
	if cfg.KeyStrategy != RateKeyIP {
		cfg.KeyStrategy = RateKeyUser
	}
	return cfg
}

// BucketTTL is how long an idle bucket is kept: long enough to refill
// completely, after which a fresh bucket is equivalent.
func (c RateLimitConfig) BucketTTL() time.Duration {
	ttl := time.Duration(c.Capacity) * c.RefillEvery
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return ttl
}
