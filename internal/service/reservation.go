package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/iliyamo/cinema-reservation-api/internal/metrics"
	"github.com/iliyamo/cinema-reservation-api/internal/model"
	"github.com/iliyamo/cinema-reservation-api/internal/queue"
	"github.com/iliyamo/cinema-reservation-api/internal/repository"
	"github.com/iliyamo/cinema-reservation-api/internal/seatmap"
)

// SeatAvailability is the seat map of a showtime.
type SeatAvailability struct {
	ShowtimeID     uint64   `json:"showtime_id"`
	AvailableSeats []string `json:"available_seats"`
}

// ReservationService admits reservations and drives their status
// changes.  A seat is held by PENDING and CONFIRMED reservations and
// freed by CANCELED ones; the admission check and the seat map agree
// on that rule.
type ReservationService struct {
	showtimes    ShowtimeStore
	halls        HallStore
	reservations ReservationStore
	cache        SeatCache
	events       EventPublisher
	logger       *slog.Logger
}

// ReservationOption customises a ReservationService.
type ReservationOption func(*ReservationService)

// WithSeatCache caches seat maps in c.
func WithSeatCache(c SeatCache) ReservationOption {
	return func(s *ReservationService) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithEventPublisher publishes lifecycle events through p.
func WithEventPublisher(p EventPublisher) ReservationOption {
	return func(s *ReservationService) {
		if p != nil {
			s.events = p
		}
	}
}

func NewReservationService(showtimes ShowtimeStore, halls HallStore, reservations ReservationStore, logger *slog.Logger, opts ...ReservationOption) *ReservationService {
	s := &ReservationService{
		showtimes:    showtimes,
		halls:        halls,
		reservations: reservations,
		cache:        noopCache{},
		events:       noopPublisher{},
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create admits a PENDING reservation of seatNumber for the caller.
// The checks run in a fixed order: showtime exists, seat not held,
// hall exists, seat code fits the hall.  The stored seat number is the
// canonical code and the price is the showtime price at this moment.
func (s *ReservationService) Create(ctx context.Context, showtimeID uint64, seatNumber string, p model.Principal) (*model.Reservation, error) {
	r, err := s.create(ctx, showtimeID, seatNumber, p)
	metrics.ObserveAdmission(admissionOutcome(err))
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, r.ShowtimeID)
	s.publish(ctx, queue.EventCreated, *r, p.ID)
	return r, nil
}

func (s *ReservationService) create(ctx context.Context, showtimeID uint64, seatNumber string, p model.Principal) (*model.Reservation, error) {
	st, err := s.showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return nil, notFound("Showtime not found")
		}
		return nil, fmt.Errorf("load showtime %d: %w", showtimeID, err)
	}

	seat := seatmap.Normalize(seatNumber)
	held, err := s.reservations.IsHeld(ctx, st.ID, seat)
	if err != nil {
		return nil, fmt.Errorf("check seat %s: %w", seat, err)
	}
	if held {
		return nil, conflict("Seat %s is already reserved", seat)
	}

	hall, err := s.halls.GetByID(ctx, st.HallID)
	if err != nil {
		if errors.Is(err, repository.ErrHallNotFound) {
			return nil, notFound("Hall not found")
		}
		return nil, fmt.Errorf("load hall %d: %w", st.HallID, err)
	}

	grid := seatmap.Grid{Rows: int(hall.Rows), Columns: int(hall.Columns)}
	if err := grid.Validate(); err != nil {
		return nil, invalid("Hall layout is invalid: %v", err)
	}
	code, _, _, err := grid.Locate(seat)
	if err != nil {
		if errors.Is(err, seatmap.ErrOutOfRange) {
			return nil, invalid("Seat %s is outside the hall layout", seat)
		}
		return nil, invalid("Invalid seat number format")
	}

	r := &model.Reservation{
		UserID:     p.ID,
		ShowtimeID: st.ID,
		SeatNumber: code,
		Price:      st.Price,
		Status:     model.StatusPending,
	}
	if err := s.reservations.CreatePending(ctx, r); err != nil {
		if errors.Is(err, repository.ErrSeatTaken) {
			return nil, conflict("Seat %s is already reserved", code)
		}
		return nil, fmt.Errorf("create reservation: %w", err)
	}
	return r, nil
}

// Cancel soft-cancels a reservation.  The owner may cancel while it is
// PENDING; an admin may also cancel a CONFIRMED one.  Cancelling an
// already CANCELED reservation is a conflict.
func (s *ReservationService) Cancel(ctx context.Context, id uint64, p model.Principal) (string, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	if r.UserID != p.ID && !p.IsAdmin() {
		return "", forbidden("You can only cancel your own reservations")
	}
	if r.Status == model.StatusCanceled {
		return "", conflict("Reservation is already canceled")
	}
	from := []string{model.StatusPending}
	if p.IsAdmin() {
		from = model.HoldStatuses
	}
	if !slices.Contains(from, r.Status) {
		return "", conflict("Reservation is %s and can no longer be canceled", r.Status)
	}

	updated, err := s.transition(ctx, id, from, model.StatusCanceled, p)
	if err != nil {
		return "", err
	}
	s.publish(ctx, queue.EventCanceled, *updated, p.ID)
	return "Reservation canceled successfully", nil
}

// Approve confirms a PENDING reservation.  Admin only.
func (s *ReservationService) Approve(ctx context.Context, id uint64, p model.Principal) (*model.Reservation, error) {
	return s.decide(ctx, id, model.StatusConfirmed, queue.EventConfirmed, p)
}

// Reject cancels a PENDING reservation.  Admin only.
func (s *ReservationService) Reject(ctx context.Context, id uint64, p model.Principal) (*model.Reservation, error) {
	return s.decide(ctx, id, model.StatusCanceled, queue.EventCanceled, p)
}

func (s *ReservationService) decide(ctx context.Context, id uint64, to, event string, p model.Principal) (*model.Reservation, error) {
	if !p.IsAdmin() {
		return nil, forbidden("Admin access required")
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	updated, err := s.transition(ctx, id, []string{model.StatusPending}, to, p)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event, *updated, p.ID)
	return updated, nil
}

func (s *ReservationService) transition(ctx context.Context, id uint64, from []string, to string, p model.Principal) (*model.Reservation, error) {
	updated, err := s.reservations.Transition(ctx, id, from, to)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrReservationNotFound):
		return nil, notFound("Reservation not found")
	case errors.Is(err, repository.ErrStatusMismatch):
		current := "changed"
		if updated != nil {
			current = updated.Status
		}
		return nil, conflict("Reservation is %s; only %v reservations can become %s", current, from, to)
	default:
		return nil, fmt.Errorf("reservation %d to %s: %w", id, to, err)
	}
	metrics.ObserveTransition(to)
	s.cache.Invalidate(ctx, updated.ShowtimeID)
	s.logger.Info("reservation status changed", "reservation_id", id, "status", to, "actor_id", p.ID)
	return updated, nil
}

// AvailableSeats returns the seats of the showtime's hall that no
// PENDING or CONFIRMED reservation holds, in row-major order.
func (s *ReservationService) AvailableSeats(ctx context.Context, showtimeID uint64) (*SeatAvailability, error) {
	st, err := s.showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return nil, notFound("Showtime not found")
		}
		return nil, fmt.Errorf("load showtime %d: %w", showtimeID, err)
	}
	hall, err := s.halls.GetByID(ctx, st.HallID)
	if err != nil {
		if errors.Is(err, repository.ErrHallNotFound) {
			return nil, notFound("Hall not found")
		}
		return nil, fmt.Errorf("load hall %d: %w", st.HallID, err)
	}

	if seats, ok := s.cache.Get(ctx, st.ID); ok {
		metrics.ObserveSeatCache(true)
		return &SeatAvailability{ShowtimeID: st.ID, AvailableSeats: seats}, nil
	}
	metrics.ObserveSeatCache(false)

	grid := seatmap.Grid{Rows: int(hall.Rows), Columns: int(hall.Columns)}
	if err := grid.Validate(); err != nil {
		return nil, invalid("Hall layout is invalid: %v", err)
	}
	held, err := s.reservations.HeldSeats(ctx, st.ID)
	if err != nil {
		return nil, fmt.Errorf("held seats of showtime %d: %w", st.ID, err)
	}
	seats := grid.Available(seatmap.Set(held))
	s.cache.Set(ctx, st.ID, seats)
	return &SeatAvailability{ShowtimeID: st.ID, AvailableSeats: seats}, nil
}

// ListMine returns the caller's reservations, newest first.
func (s *ReservationService) ListMine(ctx context.Context, p model.Principal) ([]model.Reservation, error) {
	list, err := s.reservations.ListByUser(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list reservations of user %d: %w", p.ID, err)
	}
	if list == nil {
		list = []model.Reservation{}
	}
	return list, nil
}

// Get returns a reservation visible to the caller.
func (s *ReservationService) Get(ctx context.Context, id uint64, p model.Principal) (*model.Reservation, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != p.ID && !p.IsAdmin() {
		return nil, forbidden("You can only view your own reservations")
	}
	return r, nil
}

func (s *ReservationService) load(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, notFound("Reservation not found")
		}
		return nil, fmt.Errorf("load reservation %d: %w", id, err)
	}
	return r, nil
}

// publish hands ev to the broker.  A failure is logged and counted but
// never fails the request.
func (s *ReservationService) publish(ctx context.Context, typ string, r model.Reservation, actorID uint64) {
	err := s.events.Publish(ctx, queue.NewReservationEvent(typ, r, actorID))
	metrics.ObserveEventPublish(err)
	if err != nil {
		s.logger.Warn("reservation event not published", "type", typ, "reservation_id", r.ID, "error", err)
	}
}

func admissionOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeAdmitted
	case errors.Is(err, ErrConflict):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrInvalidArgument):
		return metrics.OutcomeInvalid
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	}
	return metrics.OutcomeError
}
