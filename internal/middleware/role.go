package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles (USER or ADMIN).
// If the user's role is not in the allowed set, the request is aborted
// with a 403 Forbidden response; an unauthenticated request gets 401.
// It assumes JWTAuth ran earlier in the chain.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    // Build a set of allowed roles for constant‑time lookups.
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            p, ok := PrincipalFrom(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
            }
            if !allowed[p.Role] {
                return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
