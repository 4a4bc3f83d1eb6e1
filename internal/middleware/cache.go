package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-reservation-api/internal/config"
)

// ResponseCache stores successful public catalog responses in Redis.
// Keys embed a catalog generation counter; admin writes bump it through
// Invalidate, which orphans every entry of the previous generation.
type ResponseCache struct {
	cfg    config.CacheConfig
	rdb    redis.Cmdable
	logger *slog.Logger
}

// NewResponseCache returns a cache.  With caching disabled or a nil
// client both middlewares it hands out pass requests straight through.
func NewResponseCache(cfg config.CacheConfig, rdb redis.Cmdable, logger *slog.Logger) *ResponseCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResponseCache{cfg: cfg, rdb: rdb, logger: logger}
}

func (rc *ResponseCache) enabled() bool { return rc.cfg.Enabled && rc.rdb != nil }

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// bodyRecorder tees the response body so it can be stored after the
// handler returns.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	limit  int
	over   bool
}

func (w *bodyRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	if !w.over {
		if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
			w.over = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

func (rc *ResponseCache) generationKey() string { return rc.cfg.Prefix + ":gen" }

func (rc *ResponseCache) generation(ctx context.Context) (string, error) {
	gen, err := rc.rdb.Get(ctx, rc.generationKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

// entryKey hashes the path and the canonical query; Values.Encode sorts
// parameters, so ?a=1&b=2 and ?b=2&a=1 share an entry.
func (rc *ResponseCache) entryKey(gen string, c echo.Context) string {
	q := c.Request().URL.Query()
	path := c.Request().URL.Path
	sum := sha1.Sum([]byte(path + "?" + q.Encode()))
	return rc.cfg.Prefix + ":" + gen + ":" + hex.EncodeToString(sum[:])
}

// Serve caches GET responses with status 200.  Hits carry X-Cache: HIT.
// Redis failures are logged and the request is served uncached.
func (rc *ResponseCache) Serve() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !rc.enabled() {
			return next
		}
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			gen, err := rc.generation(ctx)
			if err != nil {
				rc.logger.Warn("response cache unavailable", "error", err)
				return next(c)
			}
			key := rc.entryKey(gen, c)

			if raw, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
				var hit cachedResponse
				if json.Unmarshal(raw, &hit) == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(hit.Status, hit.ContentType, hit.Body)
				}
			} else if !errors.Is(err, redis.Nil) {
				rc.logger.Warn("response cache read failed", "key", key, "error", err)
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: rc.cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.over {
				return nil
			}

			payload, err := json.Marshal(cachedResponse{
				Status:      rec.status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        rec.buf.Bytes(),
			})
			if err != nil {
				return nil
			}
			// the request context may already be done once the body is flushed
			wctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := rc.rdb.Set(wctx, key, payload, rc.cfg.TTL).Err(); err != nil {
				rc.logger.Warn("response cache write failed", "key", key, "error", err)
			}
			return nil
		}
	}
}

// Invalidate bumps the catalog generation after every successful write
// request, so later reads miss and see the change.
func (rc *ResponseCache) Invalidate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !rc.enabled() {
			return next
		}
		return func(c echo.Context) error {
			err := next(c)
			if c.Request().Method == http.MethodGet || err != nil || c.Response().Status >= http.StatusBadRequest {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			gen, ierr := rc.rdb.Incr(ctx, rc.generationKey()).Result()
			if ierr != nil {
				rc.logger.Error("catalog cache invalidation failed", "error", ierr)
				return err
			}
			rc.logger.Debug("catalog cache invalidated", "generation", gen)
			return err
		}
	}
}
