// This file holds the movie and genre repositories.  Movies belong to a
// genre and are scheduled into halls as showtimes.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cinema-reservation-api/internal/model"
)

// ErrMovieNotFound is returned when a movie lookup fails.
var ErrMovieNotFound = errors.New("movie not found")

// ErrGenreNotFound is returned when a genre lookup fails.
var ErrGenreNotFound = errors.New("genre not found")

// GenreRepo manages persistence for genres.
type GenreRepo struct {
	db *sql.DB
}

func NewGenreRepo(db *sql.DB) *GenreRepo { return &GenreRepo{db: db} }

// Create inserts a genre.  A duplicate name yields ErrDuplicate.
func (r *GenreRepo) Create(ctx context.Context, g *model.Genre) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO genres (name) VALUES (?)", g.Name)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	return nil
}

// GetByID returns ErrGenreNotFound when no genre has the ID.
func (r *GenreRepo) GetByID(ctx context.Context, id uint64) (*model.Genre, error) {
	var g model.Genre
	err := r.db.QueryRowContext(ctx, "SELECT id, name FROM genres WHERE id = ?", id).Scan(&g.ID, &g.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGenreNotFound
		}
		return nil, err
	}
	return &g, nil
}

// List returns every genre ordered by name.
func (r *GenreRepo) List(ctx context.Context) ([]model.Genre, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM genres ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Genre{}
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// MovieRepo manages persistence for movies.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

const movieColumns = "id, title, genre_id, duration_min, release_date, description, poster_url, created_at, updated_at"

func scanMovie(row interface{ Scan(...any) error }, m *model.Movie) error {
	var desc, poster sql.NullString
	if err := row.Scan(&m.ID, &m.Title, &m.GenreID, &m.Duration, &m.ReleaseDate, &desc, &poster, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return err
	}
	m.Description = nullableString(desc)
	m.PosterURL = nullableString(poster)
	return nil
}

// Create inserts a movie and reads back its defaults.  An unknown genre
// yields ErrGenreNotFound.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const q = `INSERT INTO movies (title, genre_id, duration_min, release_date, description, poster_url)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.GenreID, m.Duration, m.ReleaseDate, m.Description, m.PosterURL)
	if err != nil {
		if isMissingParent(err) {
			return ErrGenreNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return scanMovie(r.db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ?", m.ID), m)
}

// GetByID returns ErrMovieNotFound when no movie has the ID.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	var m model.Movie
	if err := scanMovie(r.db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ?", id), &m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &m, nil
}

// List returns movies matching f, newest release first.
func (r *MovieRepo) List(ctx context.Context, f model.MovieFilter) ([]model.Movie, error) {
	where := []string{}
	args := []any{}
	if f.GenreID != 0 {
		where = append(where, "genre_id = ?")
		args = append(args, f.GenreID)
	}
	if f.ReleasedAfter != nil {
		where = append(where, "release_date >= ?")
		args = append(args, f.ReleasedAfter.Format(model.DateLayout))
	}
	if f.ReleasedBefore != nil {
		where = append(where, "release_date <= ?")
		args = append(args, f.ReleasedBefore.Format(model.DateLayout))
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	rows, err := r.db.QueryContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE "+cond+" ORDER BY release_date DESC, id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Movie{}
	for rows.Next() {
		var m model.Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update writes every mutable movie column and refreshes m.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	const q = `UPDATE movies
	           SET title = ?, genre_id = ?, duration_min = ?, release_date = ?, description = ?, poster_url = ?,
	               updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, m.Title, m.GenreID, m.Duration, m.ReleaseDate, m.Description, m.PosterURL, m.ID); err != nil {
		if isMissingParent(err) {
			return ErrGenreNotFound
		}
		return err
	}
	fresh, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	*m = *fresh
	return nil
}

// Delete removes the movie.  ErrConflict is returned while showtimes
// still reference it.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		if isReferenced(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// HasShowtimes reports whether the movie is scheduled anywhere.
func (r *MovieRepo) HasShowtimes(ctx context.Context, id uint64) (bool, error) {
	return exists(ctx, r.db, "SELECT EXISTS(SELECT 1 FROM showtimes WHERE movie_id = ?)", id)
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
