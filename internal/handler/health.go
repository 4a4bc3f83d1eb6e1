package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
)

// Health is the liveness probe: it answers "ok" while the process serves
// HTTP at all.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Pinger is the part of *sql.DB the readiness probe needs.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// Ready is the readiness probe.  MySQL must answer a ping for a 200;
// Redis is optional and only reported, since every Redis-backed feature
// degrades to a pass-through without it.
func Ready(db Pinger, rdb redis.Cmdable) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()

        checks := echo.Map{"mysql": "ok", "redis": "disabled"}
        status, code := "ready", http.StatusOK
        if err := db.PingContext(ctx); err != nil {
            checks["mysql"] = "unavailable"
            status, code = "unavailable", http.StatusServiceUnavailable
        }
        if rdb != nil {
            checks["redis"] = "ok"
            if err := rdb.Ping(ctx).Err(); err != nil {
                checks["redis"] = "unavailable"
            }
        }
        return c.JSON(code, echo.Map{"status": status, "checks": checks})
    }
}
