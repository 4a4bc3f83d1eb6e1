// Package queue defines the reservation events exchanged over RabbitMQ
// together with the publisher used by the services and the consumer
// that records them in logs/reservations.log.
package queue

import (
    "time"

    "github.com/google/uuid"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/cinema-reservation-api/internal/model"
)

// ReservationsQueue is the durable queue carrying reservation events.
const ReservationsQueue = "reservation.events"

// Event types.
const (
    EventCreated   = "reservation.created"
    EventConfirmed = "reservation.confirmed"
    EventCanceled  = "reservation.canceled"
)

// ReservationEvent is published whenever a reservation is admitted or
// changes status.  It carries enough data for consumers to log or
// notify without querying the primary database.
type ReservationEvent struct {
    EventID       string          `json:"event_id"`
    Type          string          `json:"type"`
    ReservationID uint64          `json:"reservation_id"`
    UserID        uint64          `json:"user_id"`
    ShowtimeID    uint64          `json:"showtime_id"`
    SeatNumber    string          `json:"seat_number"`
    Status        string          `json:"status"`
    Price         decimal.Decimal `json:"price"`
    ActorID       uint64          `json:"actor_id"`
    OccurredAt    time.Time       `json:"occurred_at"`
}

// NewReservationEvent builds an event of the given type for r.  actorID
// is the user that triggered the change.
func NewReservationEvent(typ string, r model.Reservation, actorID uint64) ReservationEvent {
    return ReservationEvent{
        EventID:       uuid.NewString(),
        Type:          typ,
        ReservationID: r.ID,
        UserID:        r.UserID,
        ShowtimeID:    r.ShowtimeID,
        SeatNumber:    r.SeatNumber,
        Status:        r.Status,
        Price:         r.Price,
        ActorID:       actorID,
        OccurredAt:    time.Now().UTC(),
    }
}
