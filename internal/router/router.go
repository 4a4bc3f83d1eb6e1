package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"                   // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware" // echo's stock middleware (recover, request logging)
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-reservation-api/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/cinema-reservation-api/internal/metrics"    // Prometheus exposition
	"github.com/iliyamo/cinema-reservation-api/internal/middleware" // JWT authentication and role enforcement
	"github.com/iliyamo/cinema-reservation-api/internal/validator"
)

// New builds the Echo instance with the middleware shared by every
// route: trailing slash removal, panic recovery, request logging into
// slog and the request validator.
func New(logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.NewEchoValidator()

	// "/reservation/" and "/reservation" reach the same route.
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			logger.Log(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}))
	return e
}

// RegisterRoutes registers the operational endpoints that do not
// require authentication: liveness, readiness and Prometheus metrics.
func RegisterRoutes(e *echo.Echo, db *sql.DB, rdb redis.Cmdable) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db, rdb))
	}
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Register, login, refresh and logout need no
// session; /auth/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a refresh_token body or a bearer token; the
	// latter revokes every session of the caller.
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))

	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic registers unauthenticated browse endpoints.  Every
// catalog listing is served through the response cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, rc *middleware.ResponseCache) {
	cache := rc.Serve()
	e.GET("/movie", p.Movies, cache)
	e.GET("/movie/:id", p.Movie, cache)
	e.GET("/genre", p.Genres, cache)
	e.GET("/showtime", p.Showtimes, cache)
	e.GET("/showtime/:id", p.Showtime, cache)
	e.GET("/cinema", p.Cinemas, cache)
	e.GET("/cinema/:id/halls", p.CinemaHalls, cache)
	e.GET("/cinema/:id/showtimes", p.CinemaShowtimes, cache)
	// Halls of a cinema with their upcoming showtimes.
	e.GET("/hall/:cinema_id/hall", p.HallSchedules, cache)
}
