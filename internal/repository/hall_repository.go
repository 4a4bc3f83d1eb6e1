package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"       // errors package allows sentinel error definitions

	"github.com/iliyamo/cinema-reservation-api/internal/model"
)

// ErrHallNotFound is returned when a hall lookup fails.
var ErrHallNotFound = errors.New("hall not found")

// HallRepo provides methods to create and retrieve halls.  It embeds a
// database handle to perform queries and commands.
type HallRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewHallRepo constructs a HallRepo with the given DB handle.
func NewHallRepo(db *sql.DB) *HallRepo {
	return &HallRepo{db: db}
}

const hallColumns = "id, cinema_id, name, seat_rows, seat_cols, created_at, updated_at"

func scanHall(row interface{ Scan(...any) error }, h *model.Hall) error {
	return row.Scan(&h.ID, &h.CinemaID, &h.Name, &h.Rows, &h.Columns, &h.CreatedAt, &h.UpdatedAt)
}

// Create inserts a new hall into the database.  After insert the row is
// read back so the ID and timestamp fields are populated.  A duplicate
// name inside the cinema yields ErrDuplicate and an unknown cinema
// ErrCinemaNotFound.
func (r *HallRepo) Create(ctx context.Context, h *model.Hall) error {
	const qInsert = `INSERT INTO halls (cinema_id, name, seat_rows, seat_cols) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, h.CinemaID, h.Name, h.Rows, h.Columns)
	if err != nil {
		return hallWriteError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)

	const qSelect = "SELECT " + hallColumns + " FROM halls WHERE id = ?"
	return scanHall(r.db.QueryRowContext(ctx, qSelect, h.ID), h)
}

// GetByID retrieves a hall by its ID.  It returns ErrHallNotFound when
// no row is found.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (*model.Hall, error) {
	const q = "SELECT " + hallColumns + " FROM halls WHERE id = ?"
	var h model.Hall
	// Perform the query and scan results into the hall struct fields.
	if err := scanHall(r.db.QueryRowContext(ctx, q, id), &h); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHallNotFound
		}
		return nil, err
	}
	return &h, nil
}

// List returns every hall ordered by ID.
func (r *HallRepo) List(ctx context.Context) ([]model.Hall, error) {
	return r.query(ctx, "SELECT "+hallColumns+" FROM halls ORDER BY id")
}

// ListByCinema returns all halls inside a cinema ordered by ID.
// Useful for GET /cinema/:id/halls.
func (r *HallRepo) ListByCinema(ctx context.Context, cinemaID uint64) ([]model.Hall, error) {
	return r.query(ctx, "SELECT "+hallColumns+" FROM halls WHERE cinema_id = ? ORDER BY id", cinemaID)
}

func (r *HallRepo) query(ctx context.Context, q string, args ...any) ([]model.Hall, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Hall{}
	for rows.Next() {
		var h model.Hall
		if err := scanHall(rows, &h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes every mutable hall column and refreshes h from the
// database.  Returns ErrHallNotFound when the hall does not exist.
func (r *HallRepo) Update(ctx context.Context, h *model.Hall) error {
	const q = `UPDATE halls
               SET cinema_id = ?, name = ?, seat_rows = ?, seat_cols = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, h.CinemaID, h.Name, h.Rows, h.Columns, h.ID); err != nil {
		return hallWriteError(err)
	}
	fresh, err := r.GetByID(ctx, h.ID)
	if err != nil {
		return err
	}
	*h = *fresh
	return nil
}

// Delete removes the hall.  ErrConflict is returned while showtimes
// still reference it.
func (r *HallRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM halls WHERE id = ?", id)
	if err != nil {
		if isReferenced(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrHallNotFound
	}
	return nil
}

// HasShowtimes reports whether any showtime is scheduled in the hall.
func (r *HallRepo) HasShowtimes(ctx context.Context, id uint64) (bool, error) {
	return exists(ctx, r.db, "SELECT EXISTS(SELECT 1 FROM showtimes WHERE hall_id = ?)", id)
}

func hallWriteError(err error) error {
	switch {
	case isDuplicate(err):
		return ErrDuplicate
	case isMissingParent(err):
		return ErrCinemaNotFound
	}
	return err
}
