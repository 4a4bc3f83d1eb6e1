// This file defines the repository methods for cinema CRUD and lookup
// operations. A Cinema represents a venue that can contain multiple halls.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"       // errors is used to define custom error values

	"github.com/iliyamo/cinema-reservation-api/internal/model"
)

// ErrCinemaNotFound is returned when a cinema cannot be found in the DB.
var ErrCinemaNotFound = errors.New("cinema not found")

// CinemaRepo encapsulates all database queries related to cinemas.  It
// depends on a sql.DB connection which should be configured elsewhere.
type CinemaRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewCinemaRepo constructs a CinemaRepo with the provided DB handle.
func NewCinemaRepo(db *sql.DB) *CinemaRepo {
	return &CinemaRepo{db: db}
}

const cinemaColumns = "id, name, address, created_at, updated_at"

func scanCinema(row interface{ Scan(...any) error }, c *model.Cinema) error {
	return row.Scan(&c.ID, &c.Name, &c.Address, &c.CreatedAt, &c.UpdatedAt)
}

// Create inserts a new cinema into the database.  On success the cinema's
// ID field will be populated with the auto‑generated value.  After the
// insert, a SELECT is executed to populate the CreatedAt and UpdatedAt
// fields so that callers receive a fully populated record.  A duplicate
// name yields ErrDuplicate.
func (r *CinemaRepo) Create(ctx context.Context, c *model.Cinema) error {
	const qInsert = "INSERT INTO cinemas (name, address) VALUES (?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, c.Name, c.Address)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err // propagate DB errors to the caller
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	// Perform a follow‑up SELECT to populate default timestamp fields (created_at, updated_at).
	const qSelect = "SELECT " + cinemaColumns + " FROM cinemas WHERE id = ?"
	return scanCinema(r.db.QueryRowContext(ctx, qSelect, c.ID), c)
}

// GetByID fetches a cinema by its ID.  It returns ErrCinemaNotFound if
// no row is found.
func (r *CinemaRepo) GetByID(ctx context.Context, id uint64) (*model.Cinema, error) {
	const q = "SELECT " + cinemaColumns + " FROM cinemas WHERE id = ?"
	var c model.Cinema
	if err := scanCinema(r.db.QueryRowContext(ctx, q, id), &c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCinemaNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns all cinemas ordered by name.
func (r *CinemaRepo) List(ctx context.Context) ([]model.Cinema, error) {
	const q = "SELECT " + cinemaColumns + " FROM cinemas ORDER BY name, id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Cinema{}
	for rows.Next() {
		var c model.Cinema
		if err := scanCinema(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update writes name and address of the cinema and refreshes the
// timestamps on c.  It returns ErrCinemaNotFound when no row matches.
func (r *CinemaRepo) Update(ctx context.Context, c *model.Cinema) error {
	const q = "UPDATE cinemas SET name = ?, address = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, q, c.Name, c.Address, c.ID); err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	// RowsAffected is 0 for a no-op update, so existence is checked by re-reading.
	fresh, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *fresh
	return nil
}

// Delete removes a cinema by ID.  ErrCinemaNotFound is returned when no
// row is deleted and ErrConflict when halls still reference it.
func (r *CinemaRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cinemas WHERE id = ?", id)
	if err != nil {
		if isReferenced(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCinemaNotFound
	}
	return nil
}

// HasHalls reports whether any hall belongs to the cinema.
func (r *CinemaRepo) HasHalls(ctx context.Context, id uint64) (bool, error) {
	return exists(ctx, r.db, "SELECT EXISTS(SELECT 1 FROM halls WHERE cinema_id = ?)", id)
}

// exists runs a SELECT EXISTS(...) query.
func exists(ctx context.Context, db *sql.DB, q string, args ...any) (bool, error) {
	var ok bool
	if err := db.QueryRowContext(ctx, q, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
