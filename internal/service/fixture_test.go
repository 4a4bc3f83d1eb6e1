package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-reservation-api/internal/mocks"
	"github.com/iliyamo/cinema-reservation-api/internal/model"
	"github.com/iliyamo/cinema-reservation-api/internal/service"
)

var (
	alice = model.Principal{ID: 1001, Role: model.RoleUser}
	bob   = model.Principal{ID: 1002, Role: model.RoleUser}
	admin = model.Principal{ID: 1, Role: model.RoleAdmin}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture is a catalog with one cinema, one hall and one showtime
// seeded through the CatalogService.
type fixture struct {
	mem      *mocks.Memory
	catalog  *service.CatalogService
	cinema   model.Cinema
	hall     model.Hall
	movie    model.Movie
	showtime model.Showtime
}

func newFixture(t *testing.T, rows, cols uint32) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := mocks.NewMemory()
	f := &fixture{mem: mem}
	f.catalog = service.NewCatalogService(f.stores(), false)

	f.cinema = model.Cinema{Name: "Grand", Address: "1 Main St"}
	require.NoError(t, f.catalog.CreateCinema(ctx, &f.cinema))

	f.hall = model.Hall{CinemaID: f.cinema.ID, Name: "Hall 1", Rows: rows, Columns: cols}
	require.NoError(t, f.catalog.CreateHall(ctx, &f.hall))

	genre := model.Genre{Name: "Drama"}
	require.NoError(t, f.catalog.CreateGenre(ctx, &genre))

	f.movie = model.Movie{
		Title:       "Heat",
		GenreID:     genre.ID,
		Duration:    120,
		ReleaseDate: model.NewDate(time.Date(1995, 12, 15, 0, 0, 0, 0, time.UTC)),
	}
	require.NoError(t, f.catalog.CreateMovie(ctx, &f.movie))

	f.showtime = f.addShowtime(t, time.Now().Add(24*time.Hour).Truncate(time.Minute))
	return f
}

func (f *fixture) stores() service.CatalogStores {
	return service.CatalogStores{
		Cinemas:   f.mem.Cinemas(),
		Halls:     f.mem.Halls(),
		Genres:    f.mem.Genres(),
		Movies:    f.mem.Movies(),
		Showtimes: f.mem.Showtimes(),
		Holds:     f.mem.Reservations(),
	}
}

func (f *fixture) addShowtime(t *testing.T, start time.Time) model.Showtime {
	t.Helper()
	st := model.Showtime{
		MovieID:   f.movie.ID,
		HallID:    f.hall.ID,
		StartTime: start,
		EndTime:   start.Add(time.Duration(f.movie.Duration) * time.Minute),
		Price:     decimal.RequireFromString("12.50"),
	}
	require.NoError(t, f.catalog.CreateShowtime(context.Background(), &st))
	return st
}
