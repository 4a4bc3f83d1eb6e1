package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/cinema-reservation-api/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the caller into the request context.  The provided secret must
// match the one used when issuing tokens.  This middleware should wrap
// protected routes so that handlers can read the authenticated user via
// PrincipalFrom(c).
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header should start with "Bearer " followed by the JWT.
            raw, ok := bearer(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            // Signature, algorithm, expiry and claims are checked together.
            p, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            setPrincipal(c, p)
            return next(c)
        }
    }
}

// OptionalJWT is like JWTAuth but lets anonymous requests through.  A
// valid token still populates the principal; an invalid one is ignored.
func OptionalJWT(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if raw, ok := bearer(c); ok {
                if p, err := utils.ParseAccessToken(secret, raw); err == nil {
                    setPrincipal(c, p)
                }
            }
            return next(c)
        }
    }
}

func bearer(c echo.Context) (string, bool) {
    auth := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return "", false
    }
    raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    return raw, raw != ""
}
