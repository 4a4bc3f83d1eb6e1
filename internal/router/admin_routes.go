package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-reservation-api/internal/handler"
	"github.com/iliyamo/cinema-reservation-api/internal/middleware"
	"github.com/iliyamo/cinema-reservation-api/internal/model"
)

// RegisterAdmin registers the admin endpoints under /admin.  All routes
// require a valid JWT and the ADMIN role.  Admins manage the catalog,
// decide pending reservations, grant roles and read the reports.
// Successful writes invalidate the public catalog cache.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, r *handler.ReservationHandler, jwtSecret string, rc *middleware.ResponseCache) {
	g := e.Group(
		"/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
		rc.Invalidate(),
	)

	g.POST("/cinema", a.CreateCinema)
	g.PUT("/cinema/:id", a.ReplaceCinema)
	g.PATCH("/cinema/:id", a.PatchCinema)
	g.DELETE("/cinema/:id", a.DeleteCinema)

	g.GET("/hall", a.Halls)
	g.POST("/hall", a.CreateHall)
	g.PUT("/hall/:id", a.ReplaceHall)
	g.PATCH("/hall/:id", a.PatchHall)
	g.DELETE("/hall/:id", a.DeleteHall)

	g.POST("/genre", a.CreateGenre)

	g.POST("/movie", a.CreateMovie)
	g.PUT("/movie/:id", a.ReplaceMovie)
	g.PATCH("/movie/:id", a.PatchMovie)
	g.DELETE("/movie/:id", a.DeleteMovie)

	g.POST("/showtime", a.CreateShowtime)
	g.PUT("/showtime/:id", a.ReplaceShowtime)
	g.PATCH("/showtime/:id", a.PatchShowtime)
	g.DELETE("/showtime/:id", a.DeleteShowtime)

	// Reservation decisions: only PENDING reservations can be decided.
	g.POST("/reservation/:id/approve", r.Approve)
	g.POST("/reservation/:id/reject", r.Reject)

	g.GET("/users", a.Users)
	g.PUT("/users/:id/role", a.SetRole)
	g.GET("/sales", a.Sales)
}
