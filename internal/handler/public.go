// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines handlers for the public browsing API. These routes allow
// unauthenticated users to browse movies, genres, showtimes, cinemas and
// halls without requiring authentication.  Listings always encode as
// JSON arrays, empty when nothing matches.

package handler

import (
    "log/slog"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-reservation-api/internal/model"
    "github.com/iliyamo/cinema-reservation-api/internal/service"
)

// PublicHandler serves the read-only catalog.
type PublicHandler struct {
    base
    catalog *service.CatalogService
}

func NewPublicHandler(catalog *service.CatalogService, logger *slog.Logger, timeout time.Duration) *PublicHandler {
    return &PublicHandler{base: newBase(logger, timeout), catalog: catalog}
}

// Movies handles GET /movie?genre_id=&release_date_gte=&release_date_lte=.
func (h *PublicHandler) Movies(c echo.Context) error {
    var f model.MovieFilter
    var err error
    if f.GenreID, err = queryUint(c, "genre_id"); err != nil {
        return h.fail(c, err)
    }
    gte, err := queryDate(c, "release_date_gte")
    if err != nil {
        return h.fail(c, err)
    }
    lte, err := queryDate(c, "release_date_lte")
    if err != nil {
        return h.fail(c, err)
    }
    if gte != nil {
        f.ReleasedAfter = &gte.Time
    }
    if lte != nil {
        f.ReleasedBefore = &lte.Time
    }

    ctx, cancel := h.ctx(c)
    defer cancel()
    movies, err := h.catalog.ListMovies(ctx, f)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, nonNil(movies))
}

// Movie handles GET /movie/:id.
func (h *PublicHandler) Movie(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()
    m, err := h.catalog.GetMovie(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, m)
}

// Genres handles GET /genre.
func (h *PublicHandler) Genres(c echo.Context) error {
    ctx, cancel := h.ctx(c)
    defer cancel()
    genres, err := h.catalog.ListGenres(ctx)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, nonNil(genres))
}

// Showtimes handles GET /showtime?movie_id=&date=YYYY-MM-DD.
func (h *PublicHandler) Showtimes(c echo.Context) error {
    var f model.ShowtimeFilter
    var err error
    if f.MovieID, err = queryUint(c, "movie_id"); err != nil {
        return h.fail(c, err)
    }
    if f.Day, err = queryDate(c, "date"); err != nil {
        return h.fail(c, err)
    }

    ctx, cancel := h.ctx(c)
    defer cancel()
    list, err := h.catalog.ListShowtimes(ctx, f)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, nonNil(list))
}

// Showtime handles GET /showtime/:id.
func (h *PublicHandler) Showtime(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()
    st, err := h.catalog.GetShowtime(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, st)
}

// Cinemas handles GET /cinema.
func (h *PublicHandler) Cinemas(c echo.Context) error {
    ctx, cancel := h.ctx(c)
    defer cancel()
    list, err := h.catalog.ListCinemas(ctx)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, nonNil(list))
}

// CinemaHalls handles GET /cinema/:id/halls.
func (h *PublicHandler) CinemaHalls(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()
    halls, err := h.catalog.CinemaHalls(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, nonNil(halls))
}

// CinemaShowtimes handles GET /cinema/:id/showtimes.
func (h *PublicHandler) CinemaShowtimes(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()
    list, err := h.catalog.CinemaShowtimes(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, nonNil(list))
}

// HallSchedules handles GET /hall/:cinema_id/hall: the halls of a
// cinema, each with its upcoming showtimes.
func (h *PublicHandler) HallSchedules(c echo.Context) error {
    id, err := parseID(c, "cinema_id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()
    list, err := h.catalog.HallSchedules(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, nonNil(list))
}

func nonNil[T any](list []T) []T {
    if list == nil {
        return []T{}
    }
    return list
}
