package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-reservation-api/internal/model"
	"github.com/iliyamo/cinema-reservation-api/internal/service"
)

func TestCatalog_Halls(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 10, 20)

	tests := []struct {
		name string
		hall model.Hall
		want error
	}{
		{"zero rows", model.Hall{CinemaID: fx.cinema.ID, Name: "A", Rows: 0, Columns: 5}, service.ErrInvalidArgument},
		{"27 rows", model.Hall{CinemaID: fx.cinema.ID, Name: "B", Rows: 27, Columns: 5}, service.ErrInvalidArgument},
		{"zero columns", model.Hall{CinemaID: fx.cinema.ID, Name: "C", Rows: 5, Columns: 0}, service.ErrInvalidArgument},
		{"blank name", model.Hall{CinemaID: fx.cinema.ID, Name: "  ", Rows: 5, Columns: 5}, service.ErrInvalidArgument},
		{"unknown cinema", model.Hall{CinemaID: 9999, Name: "D", Rows: 5, Columns: 5}, service.ErrNotFound},
		{"duplicate name", model.Hall{CinemaID: fx.cinema.ID, Name: "Hall 1", Rows: 5, Columns: 5}, service.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.hall
			assert.ErrorIs(t, fx.catalog.CreateHall(ctx, &h), tt.want)
		})
	}

	t.Run("26 rows is the limit", func(t *testing.T) {
		h := model.Hall{CinemaID: fx.cinema.ID, Name: "Big", Rows: 26, Columns: 1}
		require.NoError(t, fx.catalog.CreateHall(ctx, &h))
	})

	t.Run("patch keeps the layout valid", func(t *testing.T) {
		rows := uint32(30)
		_, err := fx.catalog.PatchHall(ctx, fx.hall.ID, model.HallPatch{Rows: &rows})
		assert.ErrorIs(t, err, service.ErrInvalidArgument)

		rows = 12
		h, err := fx.catalog.PatchHall(ctx, fx.hall.ID, model.HallPatch{Rows: &rows})
		require.NoError(t, err)
		assert.EqualValues(t, 12, h.Rows)
		assert.EqualValues(t, 20, h.Columns)
	})

	t.Run("list spans cinemas", func(t *testing.T) {
		other := model.Cinema{Name: "Annex", Address: "2 Side St"}
		require.NoError(t, fx.catalog.CreateCinema(ctx, &other))
		side := model.Hall{CinemaID: other.ID, Name: "Hall 1", Rows: 3, Columns: 3}
		require.NoError(t, fx.catalog.CreateHall(ctx, &side))

		halls, err := fx.catalog.ListHalls(ctx)
		require.NoError(t, err)
		ids := make([]uint64, 0, len(halls))
		for _, h := range halls {
			ids = append(ids, h.ID)
		}
		assert.Contains(t, ids, fx.hall.ID)
		assert.Contains(t, ids, side.ID)
		assert.Equal(t, side.ID, ids[len(ids)-1])
	})

	t.Run("delete with showtimes conflicts", func(t *testing.T) {
		assert.ErrorIs(t, fx.catalog.DeleteHall(ctx, fx.hall.ID), service.ErrConflict)
		assert.ErrorIs(t, fx.catalog.DeleteHall(ctx, 9999), service.ErrNotFound)
	})
}

func TestCatalog_Cinemas(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 5, 5)

	dup := model.Cinema{Name: "Grand", Address: "elsewhere"}
	assert.ErrorIs(t, fx.catalog.CreateCinema(ctx, &dup), service.ErrConflict)

	name := "Grand Palace"
	c, err := fx.catalog.PatchCinema(ctx, fx.cinema.ID, model.CinemaPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Grand Palace", c.Name)
	assert.Equal(t, "1 Main St", c.Address)

	assert.ErrorIs(t, fx.catalog.DeleteCinema(ctx, fx.cinema.ID), service.ErrConflict)

	empty := model.Cinema{Name: "Empty", Address: "2 Side St"}
	require.NoError(t, fx.catalog.CreateCinema(ctx, &empty))
	require.NoError(t, fx.catalog.DeleteCinema(ctx, empty.ID))
	_, err = fx.catalog.GetCinema(ctx, empty.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	halls, err := fx.catalog.CinemaHalls(ctx, fx.cinema.ID)
	require.NoError(t, err)
	require.Len(t, halls, 1)
	assert.Equal(t, fx.hall.ID, halls[0].ID)

	_, err = fx.catalog.CinemaHalls(ctx, 9999)
	assert.ErrorIs(t, err, service.ErrNotFound)

	shows, err := fx.catalog.CinemaShowtimes(ctx, fx.cinema.ID)
	require.NoError(t, err)
	require.Len(t, shows, 1)
	assert.Equal(t, fx.showtime.ID, shows[0].ID)
}

func TestCatalog_HallSchedulesOnlyUpcoming(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 5, 5)
	past := fx.addShowtime(t, time.Now().Add(-72*time.Hour).Truncate(time.Minute))

	second := model.Hall{CinemaID: fx.cinema.ID, Name: "Hall 2", Rows: 3, Columns: 3}
	require.NoError(t, fx.catalog.CreateHall(ctx, &second))

	schedules, err := fx.catalog.HallSchedules(ctx, fx.cinema.ID)
	require.NoError(t, err)
	require.Len(t, schedules, 2)

	assert.Equal(t, fx.hall.ID, schedules[0].ID)
	require.Len(t, schedules[0].Showtimes, 1)
	assert.Equal(t, fx.showtime.ID, schedules[0].Showtimes[0].ID)
	assert.NotEqual(t, past.ID, schedules[0].Showtimes[0].ID)

	assert.NotNil(t, schedules[1].Showtimes)
	assert.Empty(t, schedules[1].Showtimes)
}

func TestCatalog_Movies(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 5, 5)

	bad := model.Movie{Title: "X", GenreID: 9999, Duration: 90, ReleaseDate: model.NewDate(time.Now())}
	assert.ErrorIs(t, fx.catalog.CreateMovie(ctx, &bad), service.ErrNotFound)

	zero := model.Movie{Title: "Y", GenreID: fx.movie.GenreID, Duration: 0, ReleaseDate: model.NewDate(time.Now())}
	assert.ErrorIs(t, fx.catalog.CreateMovie(ctx, &zero), service.ErrInvalidArgument)

	newer := model.Movie{
		Title:       "Collateral",
		GenreID:     fx.movie.GenreID,
		Duration:    120,
		ReleaseDate: model.NewDate(time.Date(2004, 8, 6, 0, 0, 0, 0, time.UTC)),
	}
	require.NoError(t, fx.catalog.CreateMovie(ctx, &newer))

	after := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	list, err := fx.catalog.ListMovies(ctx, model.MovieFilter{ReleasedAfter: &after})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Collateral", list[0].Title)

	before := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = fx.catalog.ListMovies(ctx, model.MovieFilter{ReleasedAfter: &after, ReleasedBefore: &before})
	assert.ErrorIs(t, err, service.ErrInvalidArgument)

	assert.ErrorIs(t, fx.catalog.DeleteMovie(ctx, fx.movie.ID), service.ErrConflict)
	require.NoError(t, fx.catalog.DeleteMovie(ctx, newer.ID))

	title := "Heat (1995)"
	m, err := fx.catalog.PatchMovie(ctx, fx.movie.ID, model.MoviePatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, m.Title)
	assert.EqualValues(t, 120, m.Duration)
}

func TestCatalog_Genres(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 5, 5)

	dup := model.Genre{Name: "Drama"}
	assert.ErrorIs(t, fx.catalog.CreateGenre(ctx, &dup), service.ErrConflict)
	blank := model.Genre{Name: " "}
	assert.ErrorIs(t, fx.catalog.CreateGenre(ctx, &blank), service.ErrInvalidArgument)

	genres, err := fx.catalog.ListGenres(ctx)
	require.NoError(t, err)
	assert.Len(t, genres, 1)
}

func TestCatalog_Showtimes(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 5, 5)
	start := fx.showtime.StartTime

	showtime := func(start, end time.Time) model.Showtime {
		return model.Showtime{MovieID: fx.movie.ID, HallID: fx.hall.ID, StartTime: start, EndTime: end, Price: decimal.NewFromInt(10)}
	}

	tests := []struct {
		name string
		st   model.Showtime
		want error
	}{
		{"end before start", showtime(start.Add(5*time.Hour), start.Add(4*time.Hour)), service.ErrInvalidArgument},
		{"end equals start", showtime(start.Add(5*time.Hour), start.Add(5*time.Hour)), service.ErrInvalidArgument},
		{"overlapping", showtime(start.Add(time.Hour), start.Add(3*time.Hour)), service.ErrConflict},
		{"same start", showtime(start, start.Add(2*time.Hour)), service.ErrConflict},
		{"unknown movie", model.Showtime{MovieID: 9999, HallID: fx.hall.ID, StartTime: start.Add(10 * time.Hour), EndTime: start.Add(12 * time.Hour)}, service.ErrNotFound},
		{"unknown hall", model.Showtime{MovieID: fx.movie.ID, HallID: 9999, StartTime: start.Add(10 * time.Hour), EndTime: start.Add(12 * time.Hour)}, service.ErrNotFound},
		{"negative price", model.Showtime{MovieID: fx.movie.ID, HallID: fx.hall.ID, StartTime: start.Add(10 * time.Hour), EndTime: start.Add(12 * time.Hour), Price: decimal.NewFromInt(-1)}, service.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := tt.st
			assert.ErrorIs(t, fx.catalog.CreateShowtime(ctx, &st), tt.want)
		})
	}

	t.Run("back to back is allowed", func(t *testing.T) {
		st := showtime(fx.showtime.EndTime, fx.showtime.EndTime.Add(90*time.Minute))
		require.NoError(t, fx.catalog.CreateShowtime(ctx, &st))
	})

	t.Run("patch does not overlap itself", func(t *testing.T) {
		end := fx.showtime.EndTime.Add(-10 * time.Minute)
		st, err := fx.catalog.PatchShowtime(ctx, fx.showtime.ID, model.ShowtimePatch{EndTime: &end})
		require.NoError(t, err)
		assert.True(t, st.EndTime.Equal(end))
	})

	t.Run("filter by day", func(t *testing.T) {
		day := model.NewDate(start)
		list, err := fx.catalog.ListShowtimes(ctx, model.ShowtimeFilter{MovieID: fx.movie.ID, Day: &day})
		require.NoError(t, err)
		assert.NotEmpty(t, list)
		for _, st := range list {
			assert.Equal(t, day.String(), model.NewDate(st.StartTime).String())
		}
	})
}

func TestCatalog_StrictDuration(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 5, 5)
	strict := service.NewCatalogService(fx.stores(), true)

	start := fx.showtime.EndTime.Add(time.Hour)
	short := model.Showtime{MovieID: fx.movie.ID, HallID: fx.hall.ID, StartTime: start, EndTime: start.Add(90 * time.Minute)}
	assert.ErrorIs(t, strict.CreateShowtime(ctx, &short), service.ErrInvalidArgument)

	exact := model.Showtime{MovieID: fx.movie.ID, HallID: fx.hall.ID, StartTime: start, EndTime: start.Add(120 * time.Minute)}
	require.NoError(t, strict.CreateShowtime(ctx, &exact))

	// lenient accepts any end after start
	start = exact.EndTime.Add(time.Hour)
	loose := model.Showtime{MovieID: fx.movie.ID, HallID: fx.hall.ID, StartTime: start, EndTime: start.Add(90 * time.Minute)}
	require.NoError(t, fx.catalog.CreateShowtime(ctx, &loose))
}

func TestCatalog_DeleteShowtimeWithReservations(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 5, 5)
	svc := service.NewReservationService(fx.mem.Showtimes(), fx.mem.Halls(), fx.mem.Reservations(), discardLogger())
	_, err := svc.Create(ctx, fx.showtime.ID, "A1", alice)
	require.NoError(t, err)

	assert.ErrorIs(t, fx.catalog.DeleteShowtime(ctx, fx.showtime.ID), service.ErrConflict)

	free := fx.addShowtime(t, fx.showtime.EndTime.Add(time.Hour))
	require.NoError(t, fx.catalog.DeleteShowtime(ctx, free.ID))
	_, err = fx.catalog.GetShowtime(ctx, free.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCatalog_WritesDropCachedSeatMaps(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 10, 20)
	seats := newRecordingCache()
	catalog := service.NewCatalogService(fx.stores(), false, service.InvalidateSeatMaps(seats))
	res := service.NewReservationService(fx.mem.Showtimes(), fx.mem.Halls(), fx.mem.Reservations(), discardLogger(),
		service.WithSeatCache(seats))

	available := func(t *testing.T, id uint64) []string {
		t.Helper()
		out, err := res.AvailableSeats(ctx, id)
		require.NoError(t, err)
		return out.AvailableSeats
	}

	require.Len(t, available(t, fx.showtime.ID), 200)

	rows := uint32(5)
	_, err := catalog.PatchHall(ctx, fx.hall.ID, model.HallPatch{Rows: &rows})
	require.NoError(t, err)

	got := available(t, fx.showtime.ID)
	require.Len(t, got, 100)
	assert.Equal(t, "E20", got[len(got)-1])

	t.Run("renaming keeps the cache", func(t *testing.T) {
		before := len(seats.invalidated)
		name := "Hall One"
		_, err := catalog.PatchHall(ctx, fx.hall.ID, model.HallPatch{Name: &name})
		require.NoError(t, err)
		assert.Len(t, seats.invalidated, before)
	})

	t.Run("showtime update", func(t *testing.T) {
		price := decimal.RequireFromString("9.00")
		_, err := catalog.PatchShowtime(ctx, fx.showtime.ID, model.ShowtimePatch{Price: &price})
		require.NoError(t, err)
		_, cached := seats.entries[fx.showtime.ID]
		assert.False(t, cached)
	})

	t.Run("showtime delete", func(t *testing.T) {
		late := fx.addShowtime(t, fx.showtime.EndTime.Add(time.Hour))
		require.Len(t, available(t, late.ID), 100)

		require.NoError(t, catalog.DeleteShowtime(ctx, late.ID))
		assert.Contains(t, seats.invalidated, late.ID)
		_, cached := seats.entries[late.ID]
		assert.False(t, cached)
	})
}

func TestCatalog_LayoutKeepsHeldSeats(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, 10, 20)
	res := service.NewReservationService(fx.mem.Showtimes(), fx.mem.Halls(), fx.mem.Reservations(), discardLogger())

	corner, err := res.Create(ctx, fx.showtime.ID, "J20", alice)
	require.NoError(t, err)

	rows, cols := uint32(5), uint32(10)
	_, err = fx.catalog.PatchHall(ctx, fx.hall.ID, model.HallPatch{Rows: &rows})
	assert.ErrorIs(t, err, service.ErrConflict)
	_, err = fx.catalog.PatchHall(ctx, fx.hall.ID, model.HallPatch{Columns: &cols})
	assert.ErrorIs(t, err, service.ErrConflict)

	h, err := fx.catalog.GetHall(ctx, fx.hall.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, h.Rows)
	assert.EqualValues(t, 20, h.Columns)

	t.Run("moving to a smaller hall", func(t *testing.T) {
		small := model.Hall{CinemaID: fx.cinema.ID, Name: "Studio", Rows: 2, Columns: 2}
		require.NoError(t, fx.catalog.CreateHall(ctx, &small))
		_, err := fx.catalog.PatchShowtime(ctx, fx.showtime.ID, model.ShowtimePatch{HallID: &small.ID})
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("growing is always allowed", func(t *testing.T) {
		wide := uint32(25)
		_, err := fx.catalog.PatchHall(ctx, fx.hall.ID, model.HallPatch{Columns: &wide})
		require.NoError(t, err)
	})

	t.Run("canceled seats do not block", func(t *testing.T) {
		_, err := res.Cancel(ctx, corner.ID, alice)
		require.NoError(t, err)

		h, err := fx.catalog.PatchHall(ctx, fx.hall.ID, model.HallPatch{Rows: &rows, Columns: &cols})
		require.NoError(t, err)
		assert.EqualValues(t, 5, h.Rows)
		assert.EqualValues(t, 10, h.Columns)
	})
}
