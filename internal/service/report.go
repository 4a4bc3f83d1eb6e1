package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-reservation-api/internal/model"
)

// SalesReport is the confirmed revenue for a filter.
type SalesReport struct {
	TotalSales   decimal.Decimal `json:"total_sales"`
	Reservations int             `json:"reservations"`
}

// ReportService answers the admin reporting queries.
type ReportService struct {
	users        UserStore
	reservations ReservationStore
	cinemas      CinemaStore
	showtimes    ShowtimeStore
}

func NewReportService(users UserStore, reservations ReservationStore, cinemas CinemaStore, showtimes ShowtimeStore) *ReportService {
	return &ReportService{users: users, reservations: reservations, cinemas: cinemas, showtimes: showtimes}
}

// UsersWithReservations lists every user that made a reservation.
func (s *ReportService) UsersWithReservations(ctx context.Context) ([]model.User, error) {
	users, err := s.users.ListWithReservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users with reservations: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// Sales totals CONFIRMED reservation prices.  Filtering by a cinema or
// showtime that does not exist is NotFound.
func (s *ReportService) Sales(ctx context.Context, f model.SalesFilter) (*SalesReport, error) {
	if f.CinemaID != 0 {
		if _, err := s.cinemas.GetByID(ctx, f.CinemaID); err != nil {
			return nil, translate(err, "Cinema")
		}
	}
	if f.ShowtimeID != 0 {
		if _, err := s.showtimes.GetByID(ctx, f.ShowtimeID); err != nil {
			return nil, translate(err, "Showtime")
		}
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, invalid("end_date must not be before start_date")
	}
	total, count, err := s.reservations.SalesTotal(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("sales total: %w", err)
	}
	return &SalesReport{TotalSales: total, Reservations: count}, nil
}
