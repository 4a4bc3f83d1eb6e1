// This file defines the repository methods for showtimes.  A Showtime
// is a scheduled screening of a movie in a hall.  Times are stored in
// UTC DATETIME columns.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sentinel definitions
	"strings"
	"time"

	"github.com/iliyamo/cinema-reservation-api/internal/model"
)

// ErrShowtimeNotFound indicates that a showtime was not located in the DB.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ShowtimeRepo manages persistence for showtimes.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo {
	return &ShowtimeRepo{db: db}
}

// Listings join the movie so responses can embed a short summary.
const showtimeSelect = `SELECT s.id, s.movie_id, s.hall_id, s.starts_at, s.ends_at, s.price, s.created_at, s.updated_at,
		m.title, m.duration_min
	FROM showtimes s
	JOIN movies m ON m.id = s.movie_id`

func scanShowtime(row interface{ Scan(...any) error }, s *model.Showtime) error {
	var sum model.MovieSummary
	if err := row.Scan(&s.ID, &s.MovieID, &s.HallID, &s.StartTime, &s.EndTime, &s.Price, &s.CreatedAt, &s.UpdatedAt,
		&sum.Title, &sum.Duration); err != nil {
		return err
	}
	sum.ID = s.MovieID
	s.Movie = &sum
	return nil
}

// Create inserts a new showtime and reads back the stored row.  The
// (movie, hall, start) slot is unique; a repeat yields ErrDuplicate.
func (r *ShowtimeRepo) Create(ctx context.Context, s *model.Showtime) error {
	const q = `INSERT INTO showtimes (movie_id, hall_id, starts_at, ends_at, price) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.MovieID, s.HallID, s.StartTime.UTC(), s.EndTime.UTC(), s.Price)
	if err != nil {
		return showtimeWriteError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	// Fetch the freshly inserted row to populate default fields (created_at, updated_at)
	return scanShowtime(r.db.QueryRowContext(ctx, showtimeSelect+" WHERE s.id = ?", s.ID), s)
}

// GetByID retrieves a showtime by its ID.  It returns ErrShowtimeNotFound
// if there is no matching row.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	var s model.Showtime
	if err := scanShowtime(r.db.QueryRowContext(ctx, showtimeSelect+" WHERE s.id = ?", id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowtimeNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns the showtimes matching f ordered by start time.
func (r *ShowtimeRepo) List(ctx context.Context, f model.ShowtimeFilter) ([]model.Showtime, error) {
	where := []string{}
	args := []any{}
	join := ""

	if f.MovieID != 0 {
		where = append(where, "s.movie_id = ?")
		args = append(args, f.MovieID)
	}
	if f.CinemaID != 0 {
		join = " JOIN halls h ON h.id = s.hall_id"
		where = append(where, "h.cinema_id = ?")
		args = append(args, f.CinemaID)
	}
	if f.HallID != 0 {
		where = append(where, "s.hall_id = ?")
		args = append(args, f.HallID)
	}
	if f.Day != nil {
		start := f.Day.Time
		where = append(where, "s.starts_at >= ? AND s.starts_at < ?")
		args = append(args, start, start.AddDate(0, 0, 1))
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	return r.query(ctx, showtimeSelect+join+" WHERE "+cond+" ORDER BY s.starts_at ASC, s.id", args...)
}

// ListUpcomingByCinema returns showtimes in the cinema's halls starting
// at or after from.
func (r *ShowtimeRepo) ListUpcomingByCinema(ctx context.Context, cinemaID uint64, from time.Time) ([]model.Showtime, error) {
	return r.query(ctx, showtimeSelect+` JOIN halls h ON h.id = s.hall_id
		WHERE h.cinema_id = ? AND s.starts_at >= ?
		ORDER BY s.starts_at ASC, s.id`, cinemaID, from.UTC())
}

func (r *ShowtimeRepo) query(ctx context.Context, q string, args ...any) ([]model.Showtime, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Showtime{}
	for rows.Next() {
		var s model.Showtime
		if err := scanShowtime(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes every mutable showtime column and refreshes s.
func (r *ShowtimeRepo) Update(ctx context.Context, s *model.Showtime) error {
	const q = `UPDATE showtimes
	           SET movie_id = ?, hall_id = ?, starts_at = ?, ends_at = ?, price = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, s.MovieID, s.HallID, s.StartTime.UTC(), s.EndTime.UTC(), s.Price, s.ID); err != nil {
		return showtimeWriteError(err)
	}
	fresh, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = *fresh
	return nil
}

// Delete removes the showtime.  ErrConflict is returned while
// reservations still reference it.
func (r *ShowtimeRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM showtimes WHERE id = ?", id)
	if err != nil {
		if isReferenced(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrShowtimeNotFound
	}
	return nil
}

// Overlaps reports whether another showtime in the hall intersects
// [start, end).  Back-to-back showtimes do not overlap.
func (r *ShowtimeRepo) Overlaps(ctx context.Context, hallID uint64, start, end time.Time, excludeID uint64) (bool, error) {
	const q = `SELECT EXISTS(
		SELECT 1 FROM showtimes
		WHERE hall_id = ? AND id <> ? AND starts_at < ? AND ends_at > ?)`
	return exists(ctx, r.db, q, hallID, excludeID, end.UTC(), start.UTC())
}

// HasReservations reports whether any reservation, in any status,
// references the showtime.
func (r *ShowtimeRepo) HasReservations(ctx context.Context, id uint64) (bool, error) {
	return exists(ctx, r.db, "SELECT EXISTS(SELECT 1 FROM reservations WHERE showtime_id = ?)", id)
}

func showtimeWriteError(err error) error {
	switch {
	case isDuplicate(err):
		return ErrDuplicate
	case isMissingParent(err):
		return ErrConflict
	}
	return err
}
