package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-reservation-api/internal/model"
	"github.com/iliyamo/cinema-reservation-api/internal/queue"
)

// The store interfaces below are implemented by the MySQL repositories
// in internal/repository.  Lookups report a missing row with the
// repository's *NotFound sentinel.

type CinemaStore interface {
	Create(ctx context.Context, c *model.Cinema) error
	GetByID(ctx context.Context, id uint64) (*model.Cinema, error)
	List(ctx context.Context) ([]model.Cinema, error)
	Update(ctx context.Context, c *model.Cinema) error
	Delete(ctx context.Context, id uint64) error
	HasHalls(ctx context.Context, id uint64) (bool, error)
}

type HallStore interface {
	Create(ctx context.Context, h *model.Hall) error
	GetByID(ctx context.Context, id uint64) (*model.Hall, error)
	List(ctx context.Context) ([]model.Hall, error)
	ListByCinema(ctx context.Context, cinemaID uint64) ([]model.Hall, error)
	Update(ctx context.Context, h *model.Hall) error
	Delete(ctx context.Context, id uint64) error
	HasShowtimes(ctx context.Context, id uint64) (bool, error)
}

type GenreStore interface {
	Create(ctx context.Context, g *model.Genre) error
	GetByID(ctx context.Context, id uint64) (*model.Genre, error)
	List(ctx context.Context) ([]model.Genre, error)
}

type MovieStore interface {
	Create(ctx context.Context, m *model.Movie) error
	GetByID(ctx context.Context, id uint64) (*model.Movie, error)
	List(ctx context.Context, f model.MovieFilter) ([]model.Movie, error)
	Update(ctx context.Context, m *model.Movie) error
	Delete(ctx context.Context, id uint64) error
	HasShowtimes(ctx context.Context, id uint64) (bool, error)
}

type ShowtimeStore interface {
	Create(ctx context.Context, s *model.Showtime) error
	GetByID(ctx context.Context, id uint64) (*model.Showtime, error)
	List(ctx context.Context, f model.ShowtimeFilter) ([]model.Showtime, error)
	// ListUpcomingByCinema returns showtimes in the cinema's halls that
	// start at or after the given instant.
	ListUpcomingByCinema(ctx context.Context, cinemaID uint64, from time.Time) ([]model.Showtime, error)
	Update(ctx context.Context, s *model.Showtime) error
	Delete(ctx context.Context, id uint64) error
	// Overlaps reports whether another showtime in hallID intersects
	// [start, end).  excludeID skips the showtime being updated.
	Overlaps(ctx context.Context, hallID uint64, start, end time.Time, excludeID uint64) (bool, error)
	HasReservations(ctx context.Context, id uint64) (bool, error)
}

type ReservationStore interface {
	// CreatePending inserts r as PENDING.  It re-checks the seat inside
	// its transaction and returns repository.ErrSeatTaken when another
	// reservation already holds it.
	CreatePending(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	// IsHeld reports whether a PENDING or CONFIRMED reservation exists
	// for the seat.
	IsHeld(ctx context.Context, showtimeID uint64, seat string) (bool, error)
	// HeldSeats returns the seat codes held for the showtime.
	HeldSeats(ctx context.Context, showtimeID uint64) ([]string, error)
	// Transition moves reservation id to status `to` when its current
	// status is one of `from`, under a row lock.  It returns
	// repository.ErrStatusMismatch with the unchanged row otherwise.
	Transition(ctx context.Context, id uint64, from []string, to string) (*model.Reservation, error)
	SalesTotal(ctx context.Context, f model.SalesFilter) (decimal.Decimal, int, error)
}

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	SetRole(ctx context.Context, id uint64, role string) error
	ListWithReservations(ctx context.Context) ([]model.User, error)
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	// ValidateRefresh returns the owner of an unrevoked, unexpired token.
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	// RevokeByHash returns repository.ErrTokenInvalid when the token is
	// unknown or already revoked.
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// SeatCache caches the available-seat list of a showtime.
type SeatCache interface {
	Get(ctx context.Context, showtimeID uint64) ([]string, bool)
	Set(ctx context.Context, showtimeID uint64, seats []string)
	Invalidate(ctx context.Context, showtimeID uint64)
}

// EventPublisher delivers reservation lifecycle events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

type noopCache struct{}

func (noopCache) Get(context.Context, uint64) ([]string, bool) { return nil, false }
func (noopCache) Set(context.Context, uint64, []string)        {}
func (noopCache) Invalidate(context.Context, uint64)           {}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, queue.ReservationEvent) error { return nil }
