package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "off")
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "bogus")
	t.Setenv("RATE_LIMIT_KEY_STRATEGY", "route")

	cfg := LoadRateLimitConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 3*time.Second, cfg.RefillEvery)
	assert.Equal(t, RateKeyUser, cfg.KeyStrategy)
	assert.Equal(t, time.Minute, cfg.BucketTTL())

	cfg.Capacity = 100
	assert.Equal(t, 300*time.Second, cfg.BucketTTL())
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_TTL", "-1s")
	t.Setenv("CACHE_PREFIX", "")

	cfg := LoadCacheConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.TTL)
	assert.Equal(t, "cinema:catalog", cfg.Prefix)
	assert.Equal(t, 1<<20, cfg.MaxBodyBytes)
}

func TestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")

	opts, err := LoadRedisConfig().Options()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Nil(t, opts.TLSConfig)

	opts, err = RedisConfig{URL: "redis://:pw@redis.internal:6379/3", Addr: "ignored:1"}.Options()
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)

	_, err = RedisConfig{URL: "http://nope"}.Options()
	assert.Error(t, err)
}

func TestDurationPolicy(t *testing.T) {
	assert.True(t, Config{DurationPolicy: DurationPolicyStrict}.StrictDuration())
	assert.False(t, Config{DurationPolicy: DurationPolicyLenient}.StrictDuration())
	assert.True(t, Config{Env: "production"}.IsProd())
}
