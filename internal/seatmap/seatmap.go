// Package seatmap derives seat codes from a hall's rectangular
// geometry.  A seat code is a row letter followed by a column number
// ("A1", "C12"); row 1 is "A" and the mapping between codes and grid
// coordinates is a bijection over [1, rows] x [1, cols].
package seatmap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxRows is the number of distinct row letters.
const MaxRows = 26

var (
	// ErrMalformed is returned when a seat code does not match
	// <row letter><column digits>.
	ErrMalformed = errors.New("invalid seat number format")
	// ErrOutOfRange is returned when a well-formed seat code lies
	// outside the hall grid.
	ErrOutOfRange = errors.New("seat number outside hall layout")
	// ErrInvalidGeometry is returned for halls with fewer than one row
	// or column, or more rows than there are letters.
	ErrInvalidGeometry = errors.New("hall rows and columns must be positive")
)

// Grid is the seating extent of a hall.
type Grid struct {
	Rows    int
	Columns int
}

// Validate checks that the grid can be addressed by seat codes.
func (g Grid) Validate() error {
	if g.Rows < 1 || g.Columns < 1 {
		return ErrInvalidGeometry
	}
	if g.Rows > MaxRows {
		return fmt.Errorf("%w: at most %d rows", ErrInvalidGeometry, MaxRows)
	}
	return nil
}

// Size returns the number of seats in the grid.
func (g Grid) Size() int { return g.Rows * g.Columns }

// Normalize trims and upper-cases a seat code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Code builds the seat code for 1-based row and column indexes.
func Code(row, col int) string {
	return string(rune('A'+row-1)) + strconv.Itoa(col)
}

// Parse decodes a seat code into 1-based row and column indexes.
// Lower-case row letters are accepted.  It only checks syntax; use
// Grid.Locate to also check the hall bounds.
func Parse(code string) (row, col int, err error) {
	s := Normalize(code)
	if len(s) < 2 {
		return 0, 0, ErrMalformed
	}
	letter := s[0]
	if letter < 'A' || letter > 'Z' {
		return 0, 0, ErrMalformed
	}
	digits := s[1:]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, 0, ErrMalformed
		}
	}
	col, err = strconv.Atoi(digits)
	if err != nil {
		return 0, 0, ErrMalformed
	}
	return int(letter-'A') + 1, col, nil
}

// Locate parses code and checks it against the grid.  The returned
// code is the canonical (normalized) form, so "a01" becomes "A1".
func (g Grid) Locate(code string) (canonical string, row, col int, err error) {
	row, col, err = Parse(code)
	if err != nil {
		return "", 0, 0, err
	}
	if row < 1 || row > g.Rows || col < 1 || col > g.Columns {
		return "", 0, 0, fmt.Errorf("%w: %s not in %dx%d", ErrOutOfRange, Normalize(code), g.Rows, g.Columns)
	}
	return Code(row, col), row, col, nil
}

// All returns every seat code of the grid in row-major order.
func (g Grid) All() []string {
	return g.Available(nil)
}

// Available returns the seat codes of the grid that are not in
// reserved, in row-major order (row A first, columns ascending).  The
// result is never nil; a fully booked grid yields an empty slice.
func (g Grid) Available(reserved map[string]struct{}) []string {
	if g.Rows < 1 || g.Columns < 1 {
		return []string{}
	}
	n := g.Size() - len(reserved)
	if n < 0 {
		n = 0
	}
	out := make([]string, 0, n)
	for r := 1; r <= g.Rows; r++ {
		for c := 1; c <= g.Columns; c++ {
			code := Code(r, c)
			if _, taken := reserved[code]; taken {
				continue
			}
			out = append(out, code)
		}
	}
	return out
}

// Set builds a lookup set from seat codes, normalizing each one.
func Set(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[Normalize(c)] = struct{}{}
	}
	return set
}
