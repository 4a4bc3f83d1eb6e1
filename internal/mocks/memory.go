// Package mocks provides in-memory implementations of the service store
// interfaces for tests.  They follow the MySQL repositories' contracts:
// the same not-found, duplicate and seat-taken sentinels, soft-cancel
// semantics and one holding reservation per seat.
package mocks

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-reservation-api/internal/model"
	"github.com/iliyamo/cinema-reservation-api/internal/repository"
)

// Memory holds every table behind a single mutex, standing in for the
// database.  Use the accessor methods to obtain the per-entity stores.
type Memory struct {
	mu sync.Mutex

	nextID       uint64
	cinemas      map[uint64]model.Cinema
	halls        map[uint64]model.Hall
	genres       map[uint64]model.Genre
	movies       map[uint64]model.Movie
	showtimes    map[uint64]model.Showtime
	reservations map[uint64]model.Reservation
	users        map[uint64]model.User
	tokens       map[string]token
}

type token struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

func NewMemory() *Memory {
	return &Memory{
		cinemas:      map[uint64]model.Cinema{},
		halls:        map[uint64]model.Hall{},
		genres:       map[uint64]model.Genre{},
		movies:       map[uint64]model.Movie{},
		showtimes:    map[uint64]model.Showtime{},
		reservations: map[uint64]model.Reservation{},
		users:        map[uint64]model.User{},
		tokens:       map[string]token{},
	}
}

func (m *Memory) id() uint64 {
	m.nextID++
	return m.nextID
}

func now() time.Time { return time.Now().UTC().Truncate(time.Second) }

func (m *Memory) Cinemas() *CinemaStore           { return &CinemaStore{m} }
func (m *Memory) Halls() *HallStore               { return &HallStore{m} }
func (m *Memory) Genres() *GenreStore             { return &GenreStore{m} }
func (m *Memory) Movies() *MovieStore             { return &MovieStore{m} }
func (m *Memory) Showtimes() *ShowtimeStore       { return &ShowtimeStore{m} }
func (m *Memory) Reservations() *ReservationStore { return &ReservationStore{m} }
func (m *Memory) Users() *UserStore               { return &UserStore{m} }
func (m *Memory) Tokens() *TokenStore             { return &TokenStore{m} }

func sortedIDs[T any](rows map[uint64]T) []uint64 {
	ids := make([]uint64, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ---- cinemas ----

type CinemaStore struct{ m *Memory }

func (s *CinemaStore) Create(_ context.Context, c *model.Cinema) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, other := range s.m.cinemas {
		if other.Name == c.Name {
			return repository.ErrDuplicate
		}
	}
	c.ID = s.m.id()
	c.CreatedAt, c.UpdatedAt = now(), now()
	s.m.cinemas[c.ID] = *c
	return nil
}

func (s *CinemaStore) GetByID(_ context.Context, id uint64) (*model.Cinema, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c, ok := s.m.cinemas[id]
	if !ok {
		return nil, repository.ErrCinemaNotFound
	}
	return &c, nil
}

func (s *CinemaStore) List(context.Context) ([]model.Cinema, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.Cinema{}
	for _, id := range sortedIDs(s.m.cinemas) {
		out = append(out, s.m.cinemas[id])
	}
	return out, nil
}

func (s *CinemaStore) Update(_ context.Context, c *model.Cinema) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.cinemas[c.ID]; !ok {
		return repository.ErrCinemaNotFound
	}
	for _, other := range s.m.cinemas {
		if other.ID != c.ID && other.Name == c.Name {
			return repository.ErrDuplicate
		}
	}
	c.UpdatedAt = now()
	s.m.cinemas[c.ID] = *c
	return nil
}

func (s *CinemaStore) Delete(_ context.Context, id uint64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.cinemas[id]; !ok {
		return repository.ErrCinemaNotFound
	}
	for _, h := range s.m.halls {
		if h.CinemaID == id {
			return repository.ErrConflict
		}
	}
	delete(s.m.cinemas, id)
	return nil
}

func (s *CinemaStore) HasHalls(_ context.Context, id uint64) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, h := range s.m.halls {
		if h.CinemaID == id {
			return true, nil
		}
	}
	return false, nil
}

// ---- halls ----

type HallStore struct{ m *Memory }

func (s *HallStore) check(h *model.Hall) error {
	if _, ok := s.m.cinemas[h.CinemaID]; !ok {
		return repository.ErrCinemaNotFound
	}
	for _, other := range s.m.halls {
		if other.ID != h.ID && other.CinemaID == h.CinemaID && other.Name == h.Name {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (s *HallStore) Create(_ context.Context, h *model.Hall) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	h.ID = 0
	if err := s.check(h); err != nil {
		return err
	}
	h.ID = s.m.id()
	h.CreatedAt, h.UpdatedAt = now(), now()
	s.m.halls[h.ID] = *h
	return nil
}

func (s *HallStore) GetByID(_ context.Context, id uint64) (*model.Hall, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	h, ok := s.m.halls[id]
	if !ok {
		return nil, repository.ErrHallNotFound
	}
	return &h, nil
}

func (s *HallStore) List(_ context.Context) ([]model.Hall, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]model.Hall, 0, len(s.m.halls))
	for _, id := range sortedIDs(s.m.halls) {
		out = append(out, s.m.halls[id])
	}
	return out, nil
}

func (s *HallStore) ListByCinema(_ context.Context, cinemaID uint64) ([]model.Hall, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.Hall{}
	for _, id := range sortedIDs(s.m.halls) {
		if h := s.m.halls[id]; h.CinemaID == cinemaID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *HallStore) Update(_ context.Context, h *model.Hall) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.halls[h.ID]; !ok {
		return repository.ErrHallNotFound
	}
	if err := s.check(h); err != nil {
		return err
	}
	h.UpdatedAt = now()
	s.m.halls[h.ID] = *h
	return nil
}

func (s *HallStore) Delete(_ context.Context, id uint64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.halls[id]; !ok {
		return repository.ErrHallNotFound
	}
	for _, st := range s.m.showtimes {
		if st.HallID == id {
			return repository.ErrConflict
		}
	}
	delete(s.m.halls, id)
	return nil
}

func (s *HallStore) HasShowtimes(_ context.Context, id uint64) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, st := range s.m.showtimes {
		if st.HallID == id {
			return true, nil
		}
	}
	return false, nil
}

// ---- genres ----

type GenreStore struct{ m *Memory }

func (s *GenreStore) Create(_ context.Context, g *model.Genre) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, other := range s.m.genres {
		if strings.EqualFold(other.Name, g.Name) {
			return repository.ErrDuplicate
		}
	}
	g.ID = s.m.id()
	s.m.genres[g.ID] = *g
	return nil
}

func (s *GenreStore) GetByID(_ context.Context, id uint64) (*model.Genre, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	g, ok := s.m.genres[id]
	if !ok {
		return nil, repository.ErrGenreNotFound
	}
	return &g, nil
}

func (s *GenreStore) List(context.Context) ([]model.Genre, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.Genre{}
	for _, id := range sortedIDs(s.m.genres) {
		out = append(out, s.m.genres[id])
	}
	return out, nil
}

// ---- movies ----

type MovieStore struct{ m *Memory }

func (s *MovieStore) Create(_ context.Context, mv *model.Movie) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.genres[mv.GenreID]; !ok {
		return repository.ErrGenreNotFound
	}
	mv.ID = s.m.id()
	mv.CreatedAt, mv.UpdatedAt = now(), now()
	s.m.movies[mv.ID] = *mv
	return nil
}

func (s *MovieStore) GetByID(_ context.Context, id uint64) (*model.Movie, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	mv, ok := s.m.movies[id]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	return &mv, nil
}

func (s *MovieStore) List(_ context.Context, f model.MovieFilter) ([]model.Movie, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.Movie{}
	for _, id := range sortedIDs(s.m.movies) {
		mv := s.m.movies[id]
		if f.GenreID != 0 && mv.GenreID != f.GenreID {
			continue
		}
		if f.ReleasedAfter != nil && mv.ReleaseDate.Before(*f.ReleasedAfter) {
			continue
		}
		if f.ReleasedBefore != nil && mv.ReleaseDate.After(*f.ReleasedBefore) {
			continue
		}
		out = append(out, mv)
	}
	return out, nil
}

func (s *MovieStore) Update(_ context.Context, mv *model.Movie) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.movies[mv.ID]; !ok {
		return repository.ErrMovieNotFound
	}
	if _, ok := s.m.genres[mv.GenreID]; !ok {
		return repository.ErrGenreNotFound
	}
	mv.UpdatedAt = now()
	s.m.movies[mv.ID] = *mv
	return nil
}

func (s *MovieStore) Delete(_ context.Context, id uint64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.movies[id]; !ok {
		return repository.ErrMovieNotFound
	}
	for _, st := range s.m.showtimes {
		if st.MovieID == id {
			return repository.ErrConflict
		}
	}
	delete(s.m.movies, id)
	return nil
}

func (s *MovieStore) HasShowtimes(_ context.Context, id uint64) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, st := range s.m.showtimes {
		if st.MovieID == id {
			return true, nil
		}
	}
	return false, nil
}

// ---- showtimes ----

type ShowtimeStore struct{ m *Memory }

func (s *ShowtimeStore) withMovie(st model.Showtime) model.Showtime {
	if mv, ok := s.m.movies[st.MovieID]; ok {
		st.Movie = &model.MovieSummary{ID: mv.ID, Title: mv.Title, Duration: mv.Duration}
	}
	return st
}

func (s *ShowtimeStore) check(st *model.Showtime) error {
	if _, ok := s.m.movies[st.MovieID]; !ok {
		return repository.ErrConflict
	}
	if _, ok := s.m.halls[st.HallID]; !ok {
		return repository.ErrConflict
	}
	for _, other := range s.m.showtimes {
		if other.ID != st.ID && other.MovieID == st.MovieID && other.HallID == st.HallID && other.StartTime.Equal(st.StartTime) {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (s *ShowtimeStore) Create(_ context.Context, st *model.Showtime) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	st.ID = 0
	if err := s.check(st); err != nil {
		return err
	}
	st.ID = s.m.id()
	st.CreatedAt, st.UpdatedAt = now(), now()
	st.Movie = nil
	s.m.showtimes[st.ID] = *st
	return nil
}

func (s *ShowtimeStore) GetByID(_ context.Context, id uint64) (*model.Showtime, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	st, ok := s.m.showtimes[id]
	if !ok {
		return nil, repository.ErrShowtimeNotFound
	}
	st = s.withMovie(st)
	return &st, nil
}

func (s *ShowtimeStore) List(_ context.Context, f model.ShowtimeFilter) ([]model.Showtime, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.filter(func(st model.Showtime) bool {
		if f.MovieID != 0 && st.MovieID != f.MovieID {
			return false
		}
		if f.CinemaID != 0 && s.m.halls[st.HallID].CinemaID != f.CinemaID {
			return false
		}
		if f.HallID != 0 && st.HallID != f.HallID {
			return false
		}
		if f.Day != nil && !model.NewDate(st.StartTime).Equal(f.Day.Time) {
			return false
		}
		return true
	}), nil
}

func (s *ShowtimeStore) ListUpcomingByCinema(_ context.Context, cinemaID uint64, from time.Time) ([]model.Showtime, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.filter(func(st model.Showtime) bool {
		return s.m.halls[st.HallID].CinemaID == cinemaID && !st.StartTime.Before(from)
	}), nil
}

// filter returns matching showtimes ordered by start time.
func (s *ShowtimeStore) filter(keep func(model.Showtime) bool) []model.Showtime {
	out := []model.Showtime{}
	for _, id := range sortedIDs(s.m.showtimes) {
		if st := s.m.showtimes[id]; keep(st) {
			out = append(out, s.withMovie(st))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (s *ShowtimeStore) Update(_ context.Context, st *model.Showtime) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.showtimes[st.ID]; !ok {
		return repository.ErrShowtimeNotFound
	}
	if err := s.check(st); err != nil {
		return err
	}
	st.UpdatedAt = now()
	stored := *st
	stored.Movie = nil
	s.m.showtimes[st.ID] = stored
	return nil
}

func (s *ShowtimeStore) Delete(_ context.Context, id uint64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.showtimes[id]; !ok {
		return repository.ErrShowtimeNotFound
	}
	for _, r := range s.m.reservations {
		if r.ShowtimeID == id {
			return repository.ErrConflict
		}
	}
	delete(s.m.showtimes, id)
	return nil
}

func (s *ShowtimeStore) Overlaps(_ context.Context, hallID uint64, start, end time.Time, excludeID uint64) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, st := range s.m.showtimes {
		if st.HallID != hallID || st.ID == excludeID {
			continue
		}
		if st.StartTime.Before(end) && st.EndTime.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (s *ShowtimeStore) HasReservations(_ context.Context, id uint64) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, r := range s.m.reservations {
		if r.ShowtimeID == id {
			return true, nil
		}
	}
	return false, nil
}

// ---- reservations ----

type ReservationStore struct{ m *Memory }

func (s *ReservationStore) held(showtimeID uint64, seat string) bool {
	for _, r := range s.m.reservations {
		if r.ShowtimeID == showtimeID && r.SeatNumber == seat && r.Holds() {
			return true
		}
	}
	return false
}

// CreatePending inserts r as PENDING unless the seat is already held,
// in which case it returns repository.ErrSeatTaken.
func (s *ReservationStore) CreatePending(_ context.Context, r *model.Reservation) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.showtimes[r.ShowtimeID]; !ok {
		return repository.ErrShowtimeNotFound
	}
	if s.held(r.ShowtimeID, r.SeatNumber) {
		return repository.ErrSeatTaken
	}
	r.ID = s.m.id()
	r.Status = model.StatusPending
	r.CreatedAt, r.UpdatedAt = now(), now()
	s.m.reservations[r.ID] = *r
	return nil
}

func (s *ReservationStore) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	return &r, nil
}

func (s *ReservationStore) ListByUser(_ context.Context, userID uint64) ([]model.Reservation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.Reservation{}
	ids := sortedIDs(s.m.reservations)
	for i := len(ids) - 1; i >= 0; i-- {
		if r := s.m.reservations[ids[i]]; r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *ReservationStore) IsHeld(_ context.Context, showtimeID uint64, seat string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.held(showtimeID, seat), nil
}

func (s *ReservationStore) HeldSeats(_ context.Context, showtimeID uint64) ([]string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []string
	for _, r := range s.m.reservations {
		if r.ShowtimeID == showtimeID && r.Holds() {
			out = append(out, r.SeatNumber)
		}
	}
	return out, nil
}

func (s *ReservationStore) Transition(_ context.Context, id uint64, from []string, to string) (*model.Reservation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	if !slices.Contains(from, r.Status) {
		return &r, repository.ErrStatusMismatch
	}
	r.Status = to
	r.UpdatedAt = now()
	s.m.reservations[id] = r
	return &r, nil
}

func (s *ReservationStore) SalesTotal(_ context.Context, f model.SalesFilter) (decimal.Decimal, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	total, count := decimal.Zero, 0
	for _, r := range s.m.reservations {
		if r.Status != model.StatusConfirmed {
			continue
		}
		if f.ShowtimeID != 0 && r.ShowtimeID != f.ShowtimeID {
			continue
		}
		if f.CinemaID != 0 && s.m.halls[s.m.showtimes[r.ShowtimeID].HallID].CinemaID != f.CinemaID {
			continue
		}
		if f.From != nil && r.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && r.CreatedAt.After(*f.To) {
			continue
		}
		total = total.Add(r.Price)
		count++
	}
	return total, count, nil
}

// SetCreatedAt backdates a reservation for date-filtered reports.
func (s *ReservationStore) SetCreatedAt(id uint64, at time.Time) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r := s.m.reservations[id]
	r.CreatedAt = at
	s.m.reservations[id] = r
}

// ---- users ----

type UserStore struct{ m *Memory }

func (s *UserStore) Create(_ context.Context, u *model.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, other := range s.m.users {
		if other.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	u.ID = s.m.id()
	u.CreatedAt, u.UpdatedAt = now(), now()
	s.m.users[u.ID] = *u
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id uint64) (*model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *UserStore) SetRole(_ context.Context, id uint64, role string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Role = role
	s.m.users[id] = u
	return nil
}

// SetActive toggles the is_active flag of a user.
func (s *UserStore) SetActive(id uint64, active bool) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u := s.m.users[id]
	u.IsActive = active
	s.m.users[id] = u
}

func (s *UserStore) ListWithReservations(context.Context) ([]model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	booked := map[uint64]bool{}
	for _, r := range s.m.reservations {
		booked[r.UserID] = true
	}
	out := []model.User{}
	for _, id := range sortedIDs(s.m.users) {
		if booked[id] {
			out = append(out, s.m.users[id])
		}
	}
	return out, nil
}

// ---- refresh tokens ----

type TokenStore struct{ m *Memory }

func (s *TokenStore) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.tokens[hash] = token{userID: userID, exp: exp}
	return nil
}

func (s *TokenStore) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.tokens[hash]
	if !ok || t.revoked || !t.exp.After(time.Now()) {
		return 0, repository.ErrTokenInvalid
	}
	return t.userID, nil
}

func (s *TokenStore) RevokeByHash(_ context.Context, hash string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.tokens[hash]
	if !ok || t.revoked {
		return repository.ErrTokenInvalid
	}
	t.revoked = true
	s.m.tokens[hash] = t
	return nil
}

func (s *TokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for hash, t := range s.m.tokens {
		if t.userID == userID {
			t.revoked = true
			s.m.tokens[hash] = t
		}
	}
	return nil
}
