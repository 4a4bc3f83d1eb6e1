package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cinema-reservation-api/internal/model"
)

// UserRepo persists the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var (
	ErrEmailExists  = errors.New("email already exists")
	ErrUserNotFound = errors.New("user not found")
)

const userColumns = "id, email, password_hash, role, full_name, phone_number, is_active, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	var phone sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.FullName, &phone, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}
	u.PhoneNumber = nullableString(phone)
	return nil
}

// Create inserts u with a normalized email and populates its ID and
// defaults.  The password must already be hashed.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, full_name, phone_number) VALUES (?,?,?,?,?)",
		u.Email, u.PasswordHash, u.Role, u.FullName, u.PhoneNumber)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return scanUser(r.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id=?", id), u)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (*model.User, error) {
	var u model.User
	if err := scanUser(r.DB.QueryRowContext(ctx, q, arg), &u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// SetRole changes a user's role.
func (r *UserRepo) SetRole(ctx context.Context, id uint64, role string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", role, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is 0 when the role was already set; tell apart from a missing row.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ListWithReservations returns the users that made at least one
// reservation, in any status.
func (r *UserRepo) ListWithReservations(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+` FROM users u
		WHERE EXISTS (SELECT 1 FROM reservations r WHERE r.user_id = u.id)
		ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
