package handler

// This file defines the customer facing reservation endpoints: booking a
// seat, listing and viewing one's reservations, cancelling, and reading
// the live seat map of a showtime.  Admission rules and the atomic
// insert live in service.ReservationService; the handlers only decode,
// authorize via the principal and encode.

import (
    "context"
    "log/slog"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-reservation-api/internal/model"
    "github.com/iliyamo/cinema-reservation-api/internal/service"
)

// ReservationHandler serves /reservation routes.
type ReservationHandler struct {
    base
    reservations *service.ReservationService
}

func NewReservationHandler(reservations *service.ReservationService, logger *slog.Logger, timeout time.Duration) *ReservationHandler {
    return &ReservationHandler{base: newBase(logger, timeout), reservations: reservations}
}

// createReservationReq is the booking body.  The seat code is checked
// by the service after the showtime lookup, so an unknown showtime is a
// 404 even when the seat code is malformed.
type createReservationReq struct {
    ShowtimeID uint64 `json:"showtime_id" validate:"required,min=1"`
    SeatNumber string `json:"seat_number" validate:"required,max=8"`
}

// Create handles POST /reservation.  It returns 201 with the PENDING
// reservation, 404 for an unknown showtime, 409 when the seat is held
// and 400 for a seat outside the hall grid.
func (h *ReservationHandler) Create(c echo.Context) error {
    p, err := principal(c)
    if err != nil {
        return h.fail(c, err)
    }
    var req createReservationReq
    if err := bindJSON(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    r, err := h.reservations.Create(ctx, req.ShowtimeID, req.SeatNumber, p)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, r)
}

// List handles GET /reservation: the caller's reservations, newest
// first.  No reservations yields an empty array.
func (h *ReservationHandler) List(c echo.Context) error {
    p, err := principal(c)
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    list, err := h.reservations.ListMine(ctx, p)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

// Get handles GET /reservation/:id for the owner or an admin.
func (h *ReservationHandler) Get(c echo.Context) error {
    p, err := principal(c)
    if err != nil {
        return h.fail(c, err)
    }
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    r, err := h.reservations.Get(ctx, id, p)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, r)
}

// Cancel handles DELETE /reservation/:id.  The row is kept with status
// CANCELED and the seat becomes available again.
func (h *ReservationHandler) Cancel(c echo.Context) error {
    p, err := principal(c)
    if err != nil {
        return h.fail(c, err)
    }
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    msg, err := h.reservations.Cancel(ctx, id, p)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": msg})
}

// AvailableSeats handles GET /reservation/showtime/:showtime_id/seats.
func (h *ReservationHandler) AvailableSeats(c echo.Context) error {
    id, err := parseID(c, "showtime_id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    seats, err := h.reservations.AvailableSeats(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, seats)
}

// Approve handles POST /admin/reservation/:id/approve.
func (h *ReservationHandler) Approve(c echo.Context) error {
    return h.decide(c, h.reservations.Approve)
}

// Reject handles POST /admin/reservation/:id/reject.
func (h *ReservationHandler) Reject(c echo.Context) error {
    return h.decide(c, h.reservations.Reject)
}

func (h *ReservationHandler) decide(c echo.Context, fn func(context.Context, uint64, model.Principal) (*model.Reservation, error)) error {
    p, err := principal(c)
    if err != nil {
        return h.fail(c, err)
    }
    id, err := parseID(c, "id")
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    r, err := fn(ctx, id, p)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, r)
}
