//go:build integration

package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/iliyamo/cinema-reservation-api/internal/database"
	"github.com/iliyamo/cinema-reservation-api/internal/model"
	"github.com/iliyamo/cinema-reservation-api/internal/repository"
)

const mysqlImage = "mysql:8.0.36"

type RepositorySuite struct {
	suite.Suite
	ctx       context.Context
	container *tcmysql.MySQLContainer
	db        *sql.DB

	users        *repository.UserRepo
	cinemas      *repository.CinemaRepo
	halls        *repository.HallRepo
	genres       *repository.GenreRepo
	movies       *repository.MovieRepo
	showtimes    *repository.ShowtimeRepo
	reservations *repository.ReservationRepo
	tokens       *repository.TokenRepo

	user     model.User
	cinema   model.Cinema
	hall     model.Hall
	movie    model.Movie
	showtime model.Showtime
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupSuite() {
	s.ctx = context.Background()
	container, err := tcmysql.Run(s.ctx, mysqlImage,
		tcmysql.WithDatabase("cinema"),
		tcmysql.WithUsername("cinema"),
		tcmysql.WithPassword("cinema"),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(s.ctx, "parseTime=true", "loc=UTC", "multiStatements=true")
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(dsn))

	s.db, err = database.OpenDSN(dsn)
	s.Require().NoError(err)

	s.users = repository.NewUserRepo(s.db)
	s.cinemas = repository.NewCinemaRepo(s.db)
	s.halls = repository.NewHallRepo(s.db)
	s.genres = repository.NewGenreRepo(s.db)
	s.movies = repository.NewMovieRepo(s.db)
	s.showtimes = repository.NewShowtimeRepo(s.db)
	s.reservations = repository.NewReservationRepo(s.db)
	s.tokens = repository.NewTokenRepo(s.db)

	s.seed()
}

func (s *RepositorySuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if err := testcontainers.TerminateContainer(s.container); err != nil {
		s.T().Logf("terminate mysql container: %v", err)
	}
}

func (s *RepositorySuite) seed() {
	s.user = model.User{Email: "alice@example.com", PasswordHash: "x", Role: model.RoleUser, FullName: "Alice", IsActive: true}
	s.Require().NoError(s.users.Create(s.ctx, &s.user))

	s.cinema = model.Cinema{Name: "Grand", Address: "1 Main St"}
	s.Require().NoError(s.cinemas.Create(s.ctx, &s.cinema))

	s.hall = model.Hall{CinemaID: s.cinema.ID, Name: "Hall 1", Rows: 10, Columns: 20}
	s.Require().NoError(s.halls.Create(s.ctx, &s.hall))

	genre := model.Genre{Name: "Drama"}
	s.Require().NoError(s.genres.Create(s.ctx, &genre))

	s.movie = model.Movie{Title: "Heat", GenreID: genre.ID, Duration: 120, ReleaseDate: model.NewDate(time.Date(1995, 12, 15, 0, 0, 0, 0, time.UTC))}
	s.Require().NoError(s.movies.Create(s.ctx, &s.movie))

	s.showtime = s.addShowtime(time.Now().UTC().Add(24 * time.Hour).Truncate(time.Minute))
}

func (s *RepositorySuite) addShowtime(start time.Time) model.Showtime {
	st := model.Showtime{
		MovieID:   s.movie.ID,
		HallID:    s.hall.ID,
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Price:     decimal.RequireFromString("12.50"),
	}
	s.Require().NoError(s.showtimes.Create(s.ctx, &st))
	return st
}

func (s *RepositorySuite) pending(showtimeID uint64, seat string) (*model.Reservation, error) {
	r := &model.Reservation{UserID: s.user.ID, ShowtimeID: showtimeID, SeatNumber: seat, Price: decimal.RequireFromString("12.50")}
	return r, s.reservations.CreatePending(s.ctx, r)
}

func (s *RepositorySuite) TestSeatIsHeldOnce() {
	r, err := s.pending(s.showtime.ID, "A1")
	s.Require().NoError(err)
	s.Equal(model.StatusPending, r.Status)
	s.NotZero(r.ID)

	_, err = s.pending(s.showtime.ID, "A1")
	s.ErrorIs(err, repository.ErrSeatTaken)

	held, err := s.reservations.IsHeld(s.ctx, s.showtime.ID, "A1")
	s.Require().NoError(err)
	s.True(held)

	// cancel frees the seat; the canceled row stays
	canceled, err := s.reservations.Transition(s.ctx, r.ID, []string{model.StatusPending}, model.StatusCanceled)
	s.Require().NoError(err)
	s.Equal(model.StatusCanceled, canceled.Status)

	again, err := s.pending(s.showtime.ID, "A1")
	s.Require().NoError(err)
	s.NotEqual(r.ID, again.ID)

	// a second canceled row for the same seat is allowed too
	_, err = s.reservations.Transition(s.ctx, again.ID, []string{model.StatusPending}, model.StatusCanceled)
	s.Require().NoError(err)
	_, err = s.pending(s.showtime.ID, "A1")
	s.NoError(err)
}

func (s *RepositorySuite) TestConcurrentAdmissionsAdmitOne() {
	const n = 12
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.pending(s.showtime.ID, "J20")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	admitted, taken := 0, 0
	for err := range results {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, repository.ErrSeatTaken):
			taken++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, admitted)
	s.Equal(n-1, taken)
}

func (s *RepositorySuite) TestTransitionGuards() {
	r, err := s.pending(s.showtime.ID, "C3")
	s.Require().NoError(err)

	confirmed, err := s.reservations.Transition(s.ctx, r.ID, []string{model.StatusPending}, model.StatusConfirmed)
	s.Require().NoError(err)
	s.Equal(model.StatusConfirmed, confirmed.Status)

	unchanged, err := s.reservations.Transition(s.ctx, r.ID, []string{model.StatusPending}, model.StatusCanceled)
	s.ErrorIs(err, repository.ErrStatusMismatch)
	s.Require().NotNil(unchanged)
	s.Equal(model.StatusConfirmed, unchanged.Status)

	_, err = s.reservations.Transition(s.ctx, 999999, []string{model.StatusPending}, model.StatusCanceled)
	s.ErrorIs(err, repository.ErrReservationNotFound)

	seats, err := s.reservations.HeldSeats(s.ctx, s.showtime.ID)
	s.Require().NoError(err)
	s.Contains(seats, "C3")

	total, count, err := s.reservations.SalesTotal(s.ctx, model.SalesFilter{ShowtimeID: s.showtime.ID, CinemaID: s.cinema.ID})
	s.Require().NoError(err)
	s.GreaterOrEqual(count, 1)
	s.True(total.GreaterThanOrEqual(decimal.RequireFromString("12.50")))
}

func (s *RepositorySuite) TestShowtimeOverlapAndReferences() {
	overlap, err := s.showtimes.Overlaps(s.ctx, s.hall.ID, s.showtime.StartTime.Add(time.Hour), s.showtime.EndTime.Add(time.Hour), 0)
	s.Require().NoError(err)
	s.True(overlap)

	overlap, err = s.showtimes.Overlaps(s.ctx, s.hall.ID, s.showtime.StartTime, s.showtime.EndTime, s.showtime.ID)
	s.Require().NoError(err)
	s.False(overlap)

	overlap, err = s.showtimes.Overlaps(s.ctx, s.hall.ID, s.showtime.EndTime, s.showtime.EndTime.Add(time.Hour), 0)
	s.Require().NoError(err)
	s.False(overlap, "back to back showtimes do not overlap")

	has, err := s.cinemas.HasHalls(s.ctx, s.cinema.ID)
	s.Require().NoError(err)
	s.True(has)
	s.ErrorIs(s.cinemas.Delete(s.ctx, s.cinema.ID), repository.ErrConflict)

	dup := model.Hall{CinemaID: s.cinema.ID, Name: "Hall 1", Rows: 1, Columns: 1}
	s.ErrorIs(s.halls.Create(s.ctx, &dup), repository.ErrDuplicate)

	_, err = s.showtimes.GetByID(s.ctx, 999999)
	s.ErrorIs(err, repository.ErrShowtimeNotFound)

	other := model.Hall{CinemaID: s.cinema.ID, Name: fmt.Sprintf("Side %d", time.Now().UnixNano()), Rows: 2, Columns: 2}
	s.Require().NoError(s.halls.Create(s.ctx, &other))
	halls, err := s.halls.List(s.ctx)
	s.Require().NoError(err)
	ids := map[uint64]bool{}
	for _, h := range halls {
		ids[h.ID] = true
	}
	s.True(ids[s.hall.ID])
	s.True(ids[other.ID])

	inHall, err := s.showtimes.List(s.ctx, model.ShowtimeFilter{HallID: s.hall.ID})
	s.Require().NoError(err)
	s.NotEmpty(inHall)
	for _, st := range inHall {
		s.Equal(s.hall.ID, st.HallID)
	}
	inOther, err := s.showtimes.List(s.ctx, model.ShowtimeFilter{HallID: other.ID})
	s.Require().NoError(err)
	s.Empty(inOther)
}

func (s *RepositorySuite) TestUsersAndTokens() {
	dup := model.User{Email: s.user.Email, PasswordHash: "x", Role: model.RoleUser, FullName: "Dup", IsActive: true}
	s.ErrorIs(s.users.Create(s.ctx, &dup), repository.ErrEmailExists)

	hash := fmt.Sprintf("%064x", time.Now().UnixNano())
	s.Require().NoError(s.tokens.StoreRefresh(s.ctx, s.user.ID, hash, time.Now().Add(time.Hour)))
	uid, err := s.tokens.ValidateRefresh(s.ctx, hash)
	s.Require().NoError(err)
	s.Equal(s.user.ID, uid)

	s.Require().NoError(s.tokens.RevokeAllForUser(s.ctx, s.user.ID))
	_, err = s.tokens.ValidateRefresh(s.ctx, hash)
	s.ErrorIs(err, repository.ErrTokenInvalid)
	s.ErrorIs(s.tokens.RevokeByHash(s.ctx, hash), repository.ErrTokenInvalid)

	rotated := fmt.Sprintf("%064x", time.Now().UnixNano()+1)
	s.Require().NoError(s.tokens.StoreRefresh(s.ctx, s.user.ID, rotated, time.Now().Add(time.Hour)))
	s.Require().NoError(s.tokens.RevokeByHash(s.ctx, rotated))
	s.ErrorIs(s.tokens.RevokeByHash(s.ctx, rotated), repository.ErrTokenInvalid, "revocation is single use")

	expired := fmt.Sprintf("%064x", time.Now().UnixNano()+2)
	s.Require().NoError(s.tokens.StoreRefresh(s.ctx, s.user.ID, expired, time.Now().Add(-time.Minute)))
	_, err = s.tokens.ValidateRefresh(s.ctx, expired)
	s.ErrorIs(err, repository.ErrTokenInvalid)

	s.Require().NoError(s.users.SetRole(s.ctx, s.user.ID, model.RoleAdmin))
	u, err := s.users.GetByID(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(model.RoleAdmin, u.Role)
	s.Require().NoError(s.users.SetRole(s.ctx, s.user.ID, model.RoleUser))
}
