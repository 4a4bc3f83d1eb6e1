package repository

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-reservation-api/internal/model"
)

// ErrReservationNotFound is returned when a reservation lookup fails.
var ErrReservationNotFound = errors.New("reservation not found")

// ReservationRepo provides persistence for reservations.  A reservation
// books one seat of one showtime.  Admission and status changes each run
// in a single transaction; the unique key over (showtime_id,
// seat_number, hold_flag) backs the in-transaction seat check.  All
// timestamp fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = "id, user_id, showtime_id, seat_number, price, status, created_at, updated_at"

// holdCond matches reservations that occupy their seat.
const holdCond = "status IN ('PENDING','CONFIRMED')"

func scanReservation(row interface{ Scan(...any) error }, r *model.Reservation) error {
	return row.Scan(&r.ID, &r.UserID, &r.ShowtimeID, &r.SeatNumber, &r.Price, &r.Status, &r.CreatedAt, &r.UpdatedAt)
}

// CreatePending inserts res as a PENDING reservation.  The showtime row
// is locked FOR UPDATE so concurrent admissions for the same showtime
// serialize; the seat is re-checked under that lock and the unique key
// catches anything that slips past.  Either way a held seat yields
// ErrSeatTaken.  On success res is populated from the stored row.
func (r *ReservationRepo) CreatePending(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var showtimeID uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM showtimes WHERE id = ? FOR UPDATE", res.ShowtimeID).Scan(&showtimeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrShowtimeNotFound
		}
		return err
	}

	var held bool
	const qHeld = "SELECT EXISTS(SELECT 1 FROM reservations WHERE showtime_id = ? AND seat_number = ? AND " + holdCond + ")"
	if err := tx.QueryRowContext(ctx, qHeld, res.ShowtimeID, res.SeatNumber).Scan(&held); err != nil {
		return err
	}
	if held {
		return ErrSeatTaken
	}

	const qInsert = `INSERT INTO reservations (user_id, showtime_id, seat_number, price, status) VALUES (?, ?, ?, ?, 'PENDING')`
	result, err := tx.ExecContext(ctx, qInsert, res.UserID, res.ShowtimeID, res.SeatNumber, res.Price)
	if err != nil {
		if isDuplicate(err) {
			return ErrSeatTaken
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	// Query back the full row to populate timestamps and defaults
	if err := scanReservation(tx.QueryRowContext(ctx, "SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id), res); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID returns ErrReservationNotFound when no reservation has the ID.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	var res model.Reservation
	if err := scanReservation(r.db.QueryRowContext(ctx, "SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id), &res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// ListByUser returns every reservation of the user, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Reservation{}
	for rows.Next() {
		var res model.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// IsHeld reports whether a PENDING or CONFIRMED reservation holds the seat.
func (r *ReservationRepo) IsHeld(ctx context.Context, showtimeID uint64, seat string) (bool, error) {
	return exists(ctx, r.db,
		"SELECT EXISTS(SELECT 1 FROM reservations WHERE showtime_id = ? AND seat_number = ? AND "+holdCond+")",
		showtimeID, seat)
}

// HeldSeats returns the seat codes held for the showtime.
func (r *ReservationRepo) HeldSeats(ctx context.Context, showtimeID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT seat_number FROM reservations WHERE showtime_id = ? AND "+holdCond, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// Transition moves the reservation to status `to` if its current status
// is in `from`.  The row is locked FOR UPDATE for the duration of the
// check and the write.  When the status does not match, the unchanged
// reservation is returned together with ErrStatusMismatch.
func (r *ReservationRepo) Transition(ctx context.Context, id uint64, from []string, to string) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var cur model.Reservation
	err = scanReservation(tx.QueryRowContext(ctx, "SELECT "+reservationColumns+" FROM reservations WHERE id = ? FOR UPDATE", id), &cur)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if !slices.Contains(from, cur.Status) {
		return &cur, ErrStatusMismatch
	}

	if _, err := tx.ExecContext(ctx, "UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", to, id); err != nil {
		if isDuplicate(err) {
			return nil, ErrSeatTaken
		}
		return nil, err
	}
	if err := scanReservation(tx.QueryRowContext(ctx, "SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id), &cur); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &cur, nil
}

// SalesTotal sums the prices of CONFIRMED reservations matching f.  The
// date bounds apply to the reservation creation time and are inclusive.
func (r *ReservationRepo) SalesTotal(ctx context.Context, f model.SalesFilter) (decimal.Decimal, int, error) {
	where := []string{"r.status = 'CONFIRMED'"}
	args := []any{}
	join := ""
	if f.CinemaID != 0 {
		join = " JOIN showtimes s ON s.id = r.showtime_id JOIN halls h ON h.id = s.hall_id"
		where = append(where, "h.cinema_id = ?")
		args = append(args, f.CinemaID)
	}
	if f.ShowtimeID != 0 {
		where = append(where, "r.showtime_id = ?")
		args = append(args, f.ShowtimeID)
	}
	if f.From != nil {
		where = append(where, "r.created_at >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "r.created_at <= ?")
		args = append(args, f.To.UTC())
	}

	q := "SELECT COALESCE(SUM(r.price), 0), COUNT(*) FROM reservations r" + join + " WHERE " + strings.Join(where, " AND ")
	var (
		total decimal.Decimal
		count int
	)
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&total, &count); err != nil {
		return decimal.Zero, 0, err
	}
	return total, count, nil
}
