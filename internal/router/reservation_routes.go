package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-reservation-api/internal/handler"
	"github.com/iliyamo/cinema-reservation-api/internal/middleware"
)

// RegisterReservation registers the /reservation endpoints.  The seat
// map is public so guests can pick a seat before signing in; it is
// served from the seat cache rather than the response cache.  Every
// other route requires a valid JWT of either role, and bookings and
// cancellations pass through the rate limiter.
func RegisterReservation(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	e.GET("/reservation/showtime/:showtime_id/seats", h.AvailableSeats)

	g := e.Group(
		"/reservation",
		middleware.JWTAuth(jwtSecret),
	)
	g.POST("", h.Create, limit)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Cancel, limit)
}
