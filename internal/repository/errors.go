// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to
// distinguish between different failure scenarios. For example,
// ErrDuplicate signals that a unique key rejected the write, while
// ErrConflict signals that an operation cannot proceed due to existing
// dependent records (e.g. deleting a showtime with reservations).
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a hall that still has showtimes.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when an insert or update violates a
// unique key (for example a second hall with the same name in a
// cinema).
var ErrDuplicate = errors.New("duplicate entry")

// ErrSeatTaken is returned when a seat is already held by a PENDING
// or CONFIRMED reservation of the same showtime.
var ErrSeatTaken = errors.New("seat already reserved")

// ErrStatusMismatch is returned by status transitions when the
// reservation is not in one of the expected states.
var ErrStatusMismatch = errors.New("reservation status mismatch")

// MySQL server error numbers we translate.
const (
	errDupEntry        = 1062
	errRowIsReferenced = 1451
	errNoReferencedRow = 1452
)

func mysqlErrno(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlErrno(err) == errDupEntry }

func isReferenced(err error) bool { return mysqlErrno(err) == errRowIsReferenced }

func isMissingParent(err error) bool { return mysqlErrno(err) == errNoReferencedRow }
