package config

import "time"

// CacheConfig configures the Redis response cache in front of the public
// catalog listings.  Entries are namespaced by a catalog generation that
// admin writes bump, so TTL only bounds how long an unused entry lingers.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int // larger responses are served but not stored
}

// LoadCacheConfig reads the CACHE_* variables.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 5*time.Minute),
		Prefix:       envStr("CACHE_PREFIX", "cinema:catalog"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return cfg
}
