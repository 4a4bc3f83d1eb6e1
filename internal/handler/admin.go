package handler

// This file defines the admin endpoints that manage the catalog
// (cinemas, halls, genres, movies, showtimes) and the reporting
// queries.  Every route here is mounted behind JWTAuth and
// RequireRole(ADMIN), so the handlers do not re-check the role.
// PUT replaces every mutable field, PATCH changes only the fields
// present in the body; unknown fields are rejected by bindJSON.

import (
    "context"
    "log/slog"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/cinema-reservation-api/internal/model"
    "github.com/iliyamo/cinema-reservation-api/internal/service"
)

// AdminHandler serves /admin catalog and reporting routes.
type AdminHandler struct {
    base
    catalog *service.CatalogService
    reports *service.ReportService
    auth    *service.AuthService
}

func NewAdminHandler(catalog *service.CatalogService, reports *service.ReportService, auth *service.AuthService, logger *slog.Logger, timeout time.Duration) *AdminHandler {
    return &AdminHandler{base: newBase(logger, timeout), catalog: catalog, reports: reports, auth: auth}
}

// ----- DTOs -----

type cinemaReq struct {
    Name    string `json:"name" validate:"required,min=1,max=100"`
    Address string `json:"address" validate:"required,min=1,max=255"`
}

type hallReq struct {
    CinemaID uint64 `json:"cinema_id" validate:"required,min=1"`
    Name     string `json:"name" validate:"required,min=1,max=100"`
    Rows     uint32 `json:"rows" validate:"required,min=1,max=26"`
    Columns  uint32 `json:"columns" validate:"required,min=1"`
}

type roleReq struct {
    Role string `json:"role" validate:"required,role"`
}

type genreReq struct {
    Name string `json:"name" validate:"required,min=1,max=50"`
}

type movieReq struct {
    Title       string      `json:"title" validate:"required,min=1,max=255"`
    GenreID     uint64      `json:"genre_id" validate:"required,min=1"`
    Duration    uint32      `json:"duration" validate:"required,min=1"`
    ReleaseDate *model.Date `json:"release_date" validate:"required"`
    Description *string     `json:"description"`
    PosterURL   *string     `json:"poster_url" validate:"omitempty,url,max=255"`
}

func (r movieReq) movie() model.Movie {
    return model.Movie{
        Title:       strings.TrimSpace(r.Title),
        GenreID:     r.GenreID,
        Duration:    r.Duration,
        ReleaseDate: *r.ReleaseDate,
        Description: r.Description,
        PosterURL:   r.PosterURL,
    }
}

type showtimeReq struct {
    MovieID   uint64          `json:"movie_id" validate:"required,min=1"`
    HallID    uint64          `json:"hall_id" validate:"required,min=1"`
    StartTime time.Time       `json:"start_time" validate:"required"`
    EndTime   time.Time       `json:"end_time" validate:"required"`
    Price     decimal.Decimal `json:"price"`
}

func (r showtimeReq) showtime() model.Showtime {
    return model.Showtime{
        MovieID:   r.MovieID,
        HallID:    r.HallID,
        StartTime: r.StartTime,
        EndTime:   r.EndTime,
        Price:     r.Price,
    }
}

// ----- cinemas -----

func (h *AdminHandler) CreateCinema(c echo.Context) error {
    var req cinemaReq
    if err := bindJSON(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    cin := &model.Cinema{Name: strings.TrimSpace(req.Name), Address: strings.TrimSpace(req.Address)}
    if err := h.catalog.CreateCinema(ctx, cin); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, cin)
}

func (h *AdminHandler) ReplaceCinema(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    var req cinemaReq
    if err := bindJSON(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    cin, err := h.catalog.ReplaceCinema(ctx, id, model.Cinema{Name: strings.TrimSpace(req.Name), Address: strings.TrimSpace(req.Address)})
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, cin)
}

func (h *AdminHandler) PatchCinema(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    var p model.CinemaPatch
    if err := bindJSON(c, &p); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    cin, err := h.catalog.PatchCinema(ctx, id, p)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, cin)
}

// DeleteCinema answers 409 while the cinema still has halls.
func (h *AdminHandler) DeleteCinema(c echo.Context) error {
    return h.remove(c, h.catalog.DeleteCinema, "Cinema deleted successfully")
}

// ----- halls -----

// Halls handles GET /admin/hall: every hall across all cinemas.
func (h *AdminHandler) Halls(c echo.Context) error {
    ctx, cancel := h.ctx(c)
    defer cancel()

    halls, err := h.catalog.ListHalls(ctx)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, halls)
}

func (h *AdminHandler) CreateHall(c echo.Context) error {
    var req hallReq
    if err := bindJSON(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    hall := &model.Hall{CinemaID: req.CinemaID, Name: req.Name, Rows: req.Rows, Columns: req.Columns}
    if err := h.catalog.CreateHall(ctx, hall); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, hall)
}

func (h *AdminHandler) ReplaceHall(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    var req hallReq
    if err := bindJSON(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    hall, err := h.catalog.ReplaceHall(ctx, id, model.Hall{CinemaID: req.CinemaID, Name: req.Name, Rows: req.Rows, Columns: req.Columns})
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, hall)
}

func (h *AdminHandler) PatchHall(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    var p model.HallPatch
    if err := bindJSON(c, &p); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    hall, err := h.catalog.PatchHall(ctx, id, p)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, hall)
}

// DeleteHall answers 409 while showtimes are scheduled in the hall.
func (h *AdminHandler) DeleteHall(c echo.Context) error {
    return h.remove(c, h.catalog.DeleteHall, "Hall deleted successfully")
}

// ----- genres -----

func (h *AdminHandler) CreateGenre(c echo.Context) error {
    var req genreReq
    if err := bindJSON(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    g := &model.Genre{Name: strings.TrimSpace(req.Name)}
    if err := h.catalog.CreateGenre(ctx, g); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, g)
}

// ----- movies -----

func (h *AdminHandler) CreateMovie(c echo.Context) error {
    var req movieReq
    if err := bindJSON(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    m := req.movie()
    if err := h.catalog.CreateMovie(ctx, &m); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, m)
}

func (h *AdminHandler) ReplaceMovie(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    var req movieReq
    if err := bindJSON(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    m, err := h.catalog.ReplaceMovie(ctx, id, req.movie())
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, m)
}

func (h *AdminHandler) PatchMovie(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    var p model.MoviePatch
    if err := bindJSON(c, &p); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    m, err := h.catalog.PatchMovie(ctx, id, p)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, m)
}

func (h *AdminHandler) DeleteMovie(c echo.Context) error {
    return h.remove(c, h.catalog.DeleteMovie, "Movie deleted successfully")
}

// ----- showtimes -----

func (h *AdminHandler) CreateShowtime(c echo.Context) error {
    var req showtimeReq
    if err := bindJSON(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    st := req.showtime()
    if err := h.catalog.CreateShowtime(ctx, &st); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, st)
}

func (h *AdminHandler) ReplaceShowtime(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    var req showtimeReq
    if err := bindJSON(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    st, err := h.catalog.ReplaceShowtime(ctx, id, req.showtime())
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, st)
}

func (h *AdminHandler) PatchShowtime(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    var p model.ShowtimePatch
    if err := bindJSON(c, &p); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    st, err := h.catalog.PatchShowtime(ctx, id, p)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, st)
}

// DeleteShowtime answers 409 once the showtime has reservations.
func (h *AdminHandler) DeleteShowtime(c echo.Context) error {
    return h.remove(c, h.catalog.DeleteShowtime, "Showtime deleted successfully")
}

// remove runs a delete operation for the :id path parameter.
func (h *AdminHandler) remove(c echo.Context, del func(context.Context, uint64) error, msg string) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    if err := del(ctx, id); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": msg})
}

// ----- reports -----

// Users handles GET /admin/users: users with at least one reservation.
func (h *AdminHandler) Users(c echo.Context) error {
    ctx, cancel := h.ctx(c)
    defer cancel()

    users, err := h.reports.UsersWithReservations(ctx)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, users)
}

// Sales handles GET /admin/sales.  Optional query parameters cinema_id,
// showtime_id, start_date and end_date (YYYY-MM-DD, both inclusive)
// narrow the confirmed reservations that are summed.
func (h *AdminHandler) Sales(c echo.Context) error {
    var f model.SalesFilter
    var err error
    if f.CinemaID, err = queryUint(c, "cinema_id"); err != nil {
        return h.fail(c, err)
    }
    if f.ShowtimeID, err = queryUint(c, "showtime_id"); err != nil {
        return h.fail(c, err)
    }
    start, err := queryDate(c, "start_date")
    if err != nil {
        return h.fail(c, err)
    }
    end, err := queryDate(c, "end_date")
    if err != nil {
        return h.fail(c, err)
    }
    if start != nil {
        from := start.Time
        f.From = &from
    }
    if end != nil {
        // last second of the end day
        to := end.Time.AddDate(0, 0, 1).Add(-time.Second)
        f.To = &to
    }

    ctx, cancel := h.ctx(c)
    defer cancel()

    report, err := h.reports.Sales(ctx, f)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, report)
}

// ----- users -----

// SetRole handles PUT /admin/users/:id/role.
func (h *AdminHandler) SetRole(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    var req roleReq
    if err := bindJSON(c, &req); err != nil {
        return h.fail(c, err)
    }
    actor, err := principal(c)
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    u, err := h.auth.SetRole(ctx, actor, id, req.Role)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, u)
}
