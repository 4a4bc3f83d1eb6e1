// Package cache keeps derived seat maps in Redis so repeated availability
// queries for a showtime skip the reservation scan.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSeatPrefix namespaces seat map keys.
const DefaultSeatPrefix = "cinema:seats"

// SeatCache stores the available-seat list of each showtime as a JSON
// array under <prefix>:<showtime id>.  Redis failures are logged and
// treated as misses; the database stays the source of truth.
type SeatCache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewSeatCache returns a SeatCache.  A non-positive ttl defaults to 30s.
func NewSeatCache(rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *SeatCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SeatCache{rdb: rdb, ttl: ttl, prefix: DefaultSeatPrefix, logger: logger}
}

func (c *SeatCache) key(showtimeID uint64) string {
	return c.prefix + ":" + strconv.FormatUint(showtimeID, 10)
}

// Get returns the cached seats of the showtime.
func (c *SeatCache) Get(ctx context.Context, showtimeID uint64) ([]string, bool) {
	raw, err := c.rdb.Get(ctx, c.key(showtimeID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("seat cache read failed", "showtime_id", showtimeID, "error", err)
		}
		return nil, false
	}
	seats := []string{}
	if err := json.Unmarshal([]byte(raw), &seats); err != nil {
		c.logger.Warn("seat cache entry corrupt", "showtime_id", showtimeID, "error", err)
		return nil, false
	}
	return seats, true
}

// Set stores the seats of the showtime for the cache TTL.
func (c *SeatCache) Set(ctx context.Context, showtimeID uint64, seats []string) {
	if seats == nil {
		seats = []string{}
	}
	b, err := json.Marshal(seats)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(showtimeID), string(b), c.ttl).Err(); err != nil {
		c.logger.Warn("seat cache write failed", "showtime_id", showtimeID, "error", err)
	}
}

// Invalidate drops the cached seats of the showtime.
func (c *SeatCache) Invalidate(ctx context.Context, showtimeID uint64) {
	if err := c.rdb.Del(ctx, c.key(showtimeID)).Err(); err != nil {
		c.logger.Warn("seat cache invalidation failed", "showtime_id", showtimeID, "error", err)
	}
}
