package model

import "time"

// MaxHallRows is the largest row count a hall may have.  Seat codes
// carry a single row letter, so rows run from A to Z.
const MaxHallRows = 26

// Hall represents an individual screening hall within a cinema.
// Its seating layout is a rectangular grid of Rows x Columns; seat
// codes are derived from the grid and never stored.
//
// Fields:
//  ID        – primary key identifier.
//  CinemaID  – ID of the containing cinema.
//  Name      – hall name, unique per cinema.
//  Rows      – number of seating rows (1..26).
//  Columns   – number of seats per row (>= 1).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Hall struct {
    ID        uint64    `json:"id"`         // halls.id
    CinemaID  uint64    `json:"cinema_id"`  // halls.cinema_id
    Name      string    `json:"name"`       // halls.name
    Rows      uint32    `json:"rows"`       // halls.seat_rows
    Columns   uint32    `json:"columns"`    // halls.seat_cols
    CreatedAt time.Time `json:"created_at"` // halls.created_at
    UpdatedAt time.Time `json:"updated_at"` // halls.updated_at
}

// Capacity returns the number of seats in the hall.
func (h Hall) Capacity() int { return int(h.Rows) * int(h.Columns) }

// HallPatch lists the hall fields an admin may change.
type HallPatch struct {
    Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
    Rows     *uint32 `json:"rows" validate:"omitempty,min=1,max=26"`
    Columns  *uint32 `json:"columns" validate:"omitempty,min=1"`
    CinemaID *uint64 `json:"cinema_id" validate:"omitempty,min=1"`
}

// Apply copies every non-nil field of the patch onto h.
func (p HallPatch) Apply(h *Hall) {
    if p.Name != nil {
        h.Name = *p.Name
    }
    if p.Rows != nil {
        h.Rows = *p.Rows
    }
    if p.Columns != nil {
        h.Columns = *p.Columns
    }
    if p.CinemaID != nil {
        h.CinemaID = *p.CinemaID
    }
}

// HallSchedule is a hall together with its upcoming showtimes.
type HallSchedule struct {
    Hall
    Showtimes []Showtime `json:"showtimes"`
}
