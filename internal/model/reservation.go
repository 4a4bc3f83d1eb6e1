package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Reservation states.  A reservation is admitted as PENDING and moves
// to CONFIRMED or CANCELED; it is never otherwise mutated.
const (
    StatusPending   = "PENDING"
    StatusConfirmed = "CONFIRMED"
    StatusCanceled  = "CANCELED"
)

// HoldStatuses are the states in which a reservation occupies its
// seat.  A CANCELED reservation frees the seat for re-booking.
var HoldStatuses = []string{StatusPending, StatusConfirmed}

// Reservation records one user's booking of one seat for a showtime.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – user who made the reservation.
//  ShowtimeID – showtime being reserved.
//  SeatNumber – seat code such as "A12", always upper case.
//  Price      – showtime price at admission time (snapshot).
//  Status     – PENDING, CONFIRMED or CANCELED.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Reservation struct {
    ID         uint64          `json:"id"`          // reservations.id
    UserID     uint64          `json:"user_id"`     // reservations.user_id
    ShowtimeID uint64          `json:"showtime_id"` // reservations.showtime_id
    SeatNumber string          `json:"seat_number"` // reservations.seat_number
    Price      decimal.Decimal `json:"price"`       // reservations.price
    Status     string          `json:"status"`      // reservations.status
    CreatedAt  time.Time       `json:"created_at"`  // reservations.created_at
    UpdatedAt  time.Time       `json:"updated_at"`  // reservations.updated_at
}

// Holds reports whether the reservation currently occupies its seat.
func (r Reservation) Holds() bool {
    return r.Status == StatusPending || r.Status == StatusConfirmed
}

// SalesFilter narrows the confirmed-sales report.
type SalesFilter struct {
    CinemaID   uint64
    ShowtimeID uint64
    From       *time.Time
    To         *time.Time
}
