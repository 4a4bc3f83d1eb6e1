package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/cinema-reservation-api/internal/model"
	"github.com/iliyamo/cinema-reservation-api/internal/repository"
	"github.com/iliyamo/cinema-reservation-api/internal/seatmap"
)

// CatalogStores groups the stores behind the catalog.
type CatalogStores struct {
	Cinemas   CinemaStore
	Halls     HallStore
	Genres    GenreStore
	Movies    MovieStore
	Showtimes ShowtimeStore
	// Holds reports the seats a showtime still holds; layout changes
	// may not drop them off the grid.
	Holds SeatHolds
}

// SeatHolds is the read side of the reservation store the catalog needs.
type SeatHolds interface {
	HeldSeats(ctx context.Context, showtimeID uint64) ([]string, error)
}

// CatalogService manages cinemas, halls, genres, movies and showtimes.
// Writes are admin operations; reads back the public listings.
type CatalogService struct {
	CatalogStores
	strictDuration bool
	seats          SeatCache
	now            func() time.Time
}

// CatalogOption customises a CatalogService.
type CatalogOption func(*CatalogService)

// InvalidateSeatMaps makes hall and showtime writes drop the cached seat
// maps they affect.  Pass the cache the ReservationService reads from.
func InvalidateSeatMaps(c SeatCache) CatalogOption {
	return func(s *CatalogService) { s.seats = c }
}

// NewCatalogService returns a CatalogService.  With strictDuration a
// showtime must end exactly movie.Duration minutes after it starts;
// otherwise it only has to end after it starts.
func NewCatalogService(stores CatalogStores, strictDuration bool, opts ...CatalogOption) *CatalogService {
	s := &CatalogService{CatalogStores: stores, strictDuration: strictDuration, seats: noopCache{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// translate maps repository sentinels onto the service taxonomy.
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrCinemaNotFound):
		return notFound("Cinema not found")
	case errors.Is(err, repository.ErrHallNotFound):
		return notFound("Hall not found")
	case errors.Is(err, repository.ErrGenreNotFound):
		return notFound("Genre not found")
	case errors.Is(err, repository.ErrMovieNotFound):
		return notFound("Movie not found")
	case errors.Is(err, repository.ErrShowtimeNotFound):
		return notFound("Showtime not found")
	case errors.Is(err, repository.ErrDuplicate):
		return conflict("%s already exists", entity)
	case errors.Is(err, repository.ErrConflict):
		return conflict("%s is still referenced by other records", entity)
	}
	return fmt.Errorf("%s: %w", strings.ToLower(entity), err)
}

// ---- cinemas ----

func (s *CatalogService) CreateCinema(ctx context.Context, c *model.Cinema) error {
	return translate(s.Cinemas.Create(ctx, c), "Cinema")
}

func (s *CatalogService) ListCinemas(ctx context.Context) ([]model.Cinema, error) {
	list, err := s.Cinemas.List(ctx)
	return list, translate(err, "Cinema")
}

func (s *CatalogService) GetCinema(ctx context.Context, id uint64) (*model.Cinema, error) {
	c, err := s.Cinemas.GetByID(ctx, id)
	return c, translate(err, "Cinema")
}

// ReplaceCinema overwrites every mutable field of the cinema.
func (s *CatalogService) ReplaceCinema(ctx context.Context, id uint64, in model.Cinema) (*model.Cinema, error) {
	return s.PatchCinema(ctx, id, model.CinemaPatch{Name: &in.Name, Address: &in.Address})
}

// PatchCinema changes the fields set in p.
func (s *CatalogService) PatchCinema(ctx context.Context, id uint64, p model.CinemaPatch) (*model.Cinema, error) {
	c, err := s.Cinemas.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Cinema")
	}
	p.Apply(c)
	if err := s.Cinemas.Update(ctx, c); err != nil {
		return nil, translate(err, "Cinema")
	}
	return c, nil
}

// DeleteCinema removes a cinema that has no halls.
func (s *CatalogService) DeleteCinema(ctx context.Context, id uint64) error {
	if _, err := s.Cinemas.GetByID(ctx, id); err != nil {
		return translate(err, "Cinema")
	}
	has, err := s.Cinemas.HasHalls(ctx, id)
	if err != nil {
		return translate(err, "Cinema")
	}
	if has {
		return conflict("Cannot delete cinema because it has associated halls")
	}
	return translate(s.Cinemas.Delete(ctx, id), "Cinema")
}

// CinemaHalls lists the halls of a cinema.
func (s *CatalogService) CinemaHalls(ctx context.Context, cinemaID uint64) ([]model.Hall, error) {
	if _, err := s.Cinemas.GetByID(ctx, cinemaID); err != nil {
		return nil, translate(err, "Cinema")
	}
	halls, err := s.Halls.ListByCinema(ctx, cinemaID)
	return halls, translate(err, "Hall")
}

// CinemaShowtimes lists every showtime scheduled in the cinema.
func (s *CatalogService) CinemaShowtimes(ctx context.Context, cinemaID uint64) ([]model.Showtime, error) {
	if _, err := s.Cinemas.GetByID(ctx, cinemaID); err != nil {
		return nil, translate(err, "Cinema")
	}
	list, err := s.Showtimes.List(ctx, model.ShowtimeFilter{CinemaID: cinemaID})
	return list, translate(err, "Showtime")
}

// ---- halls ----

func (s *CatalogService) validateHall(ctx context.Context, h *model.Hall) error {
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		return invalid("Hall name is required")
	}
	grid := seatmap.Grid{Rows: int(h.Rows), Columns: int(h.Columns)}
	if err := grid.Validate(); err != nil {
		return invalid("Rows must be between 1 and %d and columns must be positive", seatmap.MaxRows)
	}
	if _, err := s.Cinemas.GetByID(ctx, h.CinemaID); err != nil {
		return translate(err, "Cinema")
	}
	return nil
}

// CreateHall adds a hall to an existing cinema.
func (s *CatalogService) CreateHall(ctx context.Context, h *model.Hall) error {
	if err := s.validateHall(ctx, h); err != nil {
		return err
	}
	return translate(s.Halls.Create(ctx, h), "Hall")
}

func (s *CatalogService) ListHalls(ctx context.Context) ([]model.Hall, error) {
	list, err := s.Halls.List(ctx)
	return list, translate(err, "Hall")
}

func (s *CatalogService) GetHall(ctx context.Context, id uint64) (*model.Hall, error) {
	h, err := s.Halls.GetByID(ctx, id)
	return h, translate(err, "Hall")
}

// ReplaceHall overwrites every mutable field of the hall.
func (s *CatalogService) ReplaceHall(ctx context.Context, id uint64, in model.Hall) (*model.Hall, error) {
	return s.PatchHall(ctx, id, model.HallPatch{Name: &in.Name, Rows: &in.Rows, Columns: &in.Columns, CinemaID: &in.CinemaID})
}

// PatchHall changes the fields set in p.  The resulting hall must still
// have a valid layout, and shrinking it must not strand a held seat of
// one of its showtimes outside the new grid.
func (s *CatalogService) PatchHall(ctx context.Context, id uint64, p model.HallPatch) (*model.Hall, error) {
	h, err := s.Halls.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Hall")
	}
	oldRows, oldCols := h.Rows, h.Columns
	p.Apply(h)
	if err := s.validateHall(ctx, h); err != nil {
		return nil, err
	}
	resized := h.Rows != oldRows || h.Columns != oldCols
	var showtimes []model.Showtime
	if resized {
		if showtimes, err = s.Showtimes.List(ctx, model.ShowtimeFilter{HallID: id}); err != nil {
			return nil, translate(err, "Showtime")
		}
		for _, st := range showtimes {
			if err := s.fitsHeldSeats(ctx, st.ID, h); err != nil {
				return nil, err
			}
		}
	}
	if err := s.Halls.Update(ctx, h); err != nil {
		return nil, translate(err, "Hall")
	}
	for _, st := range showtimes {
		s.seats.Invalidate(ctx, st.ID)
	}
	return h, nil
}

// fitsHeldSeats returns a conflict when a seat held for the showtime
// lies outside hall h.
func (s *CatalogService) fitsHeldSeats(ctx context.Context, showtimeID uint64, h *model.Hall) error {
	held, err := s.Holds.HeldSeats(ctx, showtimeID)
	if err != nil {
		return fmt.Errorf("held seats: %w", err)
	}
	grid := seatmap.Grid{Rows: int(h.Rows), Columns: int(h.Columns)}
	for _, seat := range held {
		if _, _, _, err := grid.Locate(seat); err != nil {
			return conflict("Seat %s of showtime %d is reserved and lies outside hall %q", seat, showtimeID, h.Name)
		}
	}
	return nil
}

// DeleteHall removes a hall that has no showtimes.
func (s *CatalogService) DeleteHall(ctx context.Context, id uint64) error {
	if _, err := s.Halls.GetByID(ctx, id); err != nil {
		return translate(err, "Hall")
	}
	has, err := s.Halls.HasShowtimes(ctx, id)
	if err != nil {
		return translate(err, "Hall")
	}
	if has {
		return conflict("Cannot delete hall because it has associated showtimes")
	}
	return translate(s.Halls.Delete(ctx, id), "Hall")
}

// HallSchedules returns the halls of a cinema, each with the showtimes
// that have not started yet.
func (s *CatalogService) HallSchedules(ctx context.Context, cinemaID uint64) ([]model.HallSchedule, error) {
	halls, err := s.CinemaHalls(ctx, cinemaID)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.Showtimes.ListUpcomingByCinema(ctx, cinemaID, s.now().UTC())
	if err != nil {
		return nil, translate(err, "Showtime")
	}
	byHall := make(map[uint64][]model.Showtime, len(halls))
	for _, st := range upcoming {
		byHall[st.HallID] = append(byHall[st.HallID], st)
	}
	out := make([]model.HallSchedule, 0, len(halls))
	for _, h := range halls {
		shows := byHall[h.ID]
		if shows == nil {
			shows = []model.Showtime{}
		}
		out = append(out, model.HallSchedule{Hall: h, Showtimes: shows})
	}
	return out, nil
}

// ---- genres ----

func (s *CatalogService) CreateGenre(ctx context.Context, g *model.Genre) error {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return invalid("Genre name is required")
	}
	return translate(s.Genres.Create(ctx, g), "Genre")
}

func (s *CatalogService) ListGenres(ctx context.Context) ([]model.Genre, error) {
	list, err := s.Genres.List(ctx)
	return list, translate(err, "Genre")
}

// ---- movies ----

func (s *CatalogService) validateMovie(ctx context.Context, m *model.Movie) error {
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		return invalid("Movie title is required")
	}
	if m.Duration < 1 {
		return invalid("Duration must be positive")
	}
	if m.ReleaseDate.IsZero() {
		return invalid("Release date is required")
	}
	if _, err := s.Genres.GetByID(ctx, m.GenreID); err != nil {
		return translate(err, "Genre")
	}
	return nil
}

func (s *CatalogService) CreateMovie(ctx context.Context, m *model.Movie) error {
	if err := s.validateMovie(ctx, m); err != nil {
		return err
	}
	return translate(s.Movies.Create(ctx, m), "Movie")
}

func (s *CatalogService) GetMovie(ctx context.Context, id uint64) (*model.Movie, error) {
	m, err := s.Movies.GetByID(ctx, id)
	return m, translate(err, "Movie")
}

func (s *CatalogService) ListMovies(ctx context.Context, f model.MovieFilter) ([]model.Movie, error) {
	if f.ReleasedAfter != nil && f.ReleasedBefore != nil && f.ReleasedBefore.Before(*f.ReleasedAfter) {
		return nil, invalid("release_date_lte must not be before release_date_gte")
	}
	list, err := s.Movies.List(ctx, f)
	return list, translate(err, "Movie")
}

// ReplaceMovie overwrites every mutable field of the movie.
func (s *CatalogService) ReplaceMovie(ctx context.Context, id uint64, in model.Movie) (*model.Movie, error) {
	m, err := s.Movies.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Movie")
	}
	in.ID, in.CreatedAt = m.ID, m.CreatedAt
	return s.saveMovie(ctx, &in)
}

// PatchMovie changes the fields set in p.
func (s *CatalogService) PatchMovie(ctx context.Context, id uint64, p model.MoviePatch) (*model.Movie, error) {
	m, err := s.Movies.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Movie")
	}
	p.Apply(m)
	return s.saveMovie(ctx, m)
}

func (s *CatalogService) saveMovie(ctx context.Context, m *model.Movie) (*model.Movie, error) {
	if err := s.validateMovie(ctx, m); err != nil {
		return nil, err
	}
	if err := s.Movies.Update(ctx, m); err != nil {
		return nil, translate(err, "Movie")
	}
	return m, nil
}

// DeleteMovie removes a movie that is not scheduled anywhere.
func (s *CatalogService) DeleteMovie(ctx context.Context, id uint64) error {
	if _, err := s.Movies.GetByID(ctx, id); err != nil {
		return translate(err, "Movie")
	}
	has, err := s.Movies.HasShowtimes(ctx, id)
	if err != nil {
		return translate(err, "Movie")
	}
	if has {
		return conflict("Cannot delete movie because it has associated showtimes")
	}
	return translate(s.Movies.Delete(ctx, id), "Movie")
}

// ---- showtimes ----

// validateShowtime checks the showtime window, price and references,
// then rejects overlaps with other showtimes of the same hall.
func (s *CatalogService) validateShowtime(ctx context.Context, st *model.Showtime) error {
	st.StartTime, st.EndTime = st.StartTime.UTC(), st.EndTime.UTC()
	if st.StartTime.IsZero() || st.EndTime.IsZero() {
		return invalid("Start and end time are required")
	}
	if !st.EndTime.After(st.StartTime) {
		return invalid("End time must be after start time")
	}
	if st.Price.IsNegative() {
		return invalid("Price must not be negative")
	}
	movie, err := s.Movies.GetByID(ctx, st.MovieID)
	if err != nil {
		return translate(err, "Movie")
	}
	if _, err := s.Halls.GetByID(ctx, st.HallID); err != nil {
		return translate(err, "Hall")
	}
	if s.strictDuration {
		want := st.StartTime.Add(time.Duration(movie.Duration) * time.Minute)
		if !st.EndTime.Equal(want) {
			return invalid("End time must be %d minutes after start time", movie.Duration)
		}
	}
	overlap, err := s.Showtimes.Overlaps(ctx, st.HallID, st.StartTime, st.EndTime, st.ID)
	if err != nil {
		return translate(err, "Showtime")
	}
	if overlap {
		return conflict("Showtime overlaps another showtime in the same hall")
	}
	return nil
}

func (s *CatalogService) CreateShowtime(ctx context.Context, st *model.Showtime) error {
	st.ID = 0
	if err := s.validateShowtime(ctx, st); err != nil {
		return err
	}
	return translate(s.Showtimes.Create(ctx, st), "Showtime")
}

func (s *CatalogService) GetShowtime(ctx context.Context, id uint64) (*model.Showtime, error) {
	st, err := s.Showtimes.GetByID(ctx, id)
	return st, translate(err, "Showtime")
}

func (s *CatalogService) ListShowtimes(ctx context.Context, f model.ShowtimeFilter) ([]model.Showtime, error) {
	list, err := s.Showtimes.List(ctx, f)
	return list, translate(err, "Showtime")
}

// ReplaceShowtime overwrites every mutable field of the showtime.
func (s *CatalogService) ReplaceShowtime(ctx context.Context, id uint64, in model.Showtime) (*model.Showtime, error) {
	return s.PatchShowtime(ctx, id, model.ShowtimePatch{
		MovieID:   &in.MovieID,
		HallID:    &in.HallID,
		StartTime: &in.StartTime,
		EndTime:   &in.EndTime,
		Price:     &in.Price,
	})
}

// PatchShowtime changes the fields set in p and re-runs the showtime
// checks on the result.  Reservations keep the price they were admitted
// with.
func (s *CatalogService) PatchShowtime(ctx context.Context, id uint64, p model.ShowtimePatch) (*model.Showtime, error) {
	st, err := s.Showtimes.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Showtime")
	}
	oldHall := st.HallID
	p.Apply(st)
	if err := s.validateShowtime(ctx, st); err != nil {
		return nil, err
	}
	if st.HallID != oldHall {
		hall, err := s.Halls.GetByID(ctx, st.HallID)
		if err != nil {
			return nil, translate(err, "Hall")
		}
		if err := s.fitsHeldSeats(ctx, st.ID, hall); err != nil {
			return nil, err
		}
	}
	if err := s.Showtimes.Update(ctx, st); err != nil {
		return nil, translate(err, "Showtime")
	}
	s.seats.Invalidate(ctx, st.ID)
	return st, nil
}

// DeleteShowtime removes a showtime that has no reservations.
func (s *CatalogService) DeleteShowtime(ctx context.Context, id uint64) error {
	if _, err := s.Showtimes.GetByID(ctx, id); err != nil {
		return translate(err, "Showtime")
	}
	has, err := s.Showtimes.HasReservations(ctx, id)
	if err != nil {
		return translate(err, "Showtime")
	}
	if has {
		return conflict("Cannot delete showtime because it has associated reservations")
	}
	if err := s.Showtimes.Delete(ctx, id); err != nil {
		return translate(err, "Showtime")
	}
	s.seats.Invalidate(ctx, id)
	return nil
}
