package model

import "time"

// Cinema represents a movie theatre venue. A cinema can contain
// multiple halls. This struct corresponds to a row in the
// `cinemas` table.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the cinema.
//  Address   – street address shown to customers.
//  CreatedAt – timestamp when the cinema was created.
//  UpdatedAt – timestamp of last update.
type Cinema struct {
    ID        uint64    `json:"id"`         // cinemas.id
    Name      string    `json:"name"`       // cinemas.name
    Address   string    `json:"address"`    // cinemas.address
    CreatedAt time.Time `json:"created_at"` // cinemas.created_at
    UpdatedAt time.Time `json:"updated_at"` // cinemas.updated_at
}

// CinemaPatch lists the cinema fields an admin may change.  A nil
// pointer leaves the current value untouched.
type CinemaPatch struct {
    Name    *string `json:"name" validate:"omitempty,min=1,max=100"`
    Address *string `json:"address" validate:"omitempty,min=1,max=255"`
}

// Apply copies every non-nil field of the patch onto c.
func (p CinemaPatch) Apply(c *Cinema) {
    if p.Name != nil {
        c.Name = *p.Name
    }
    if p.Address != nil {
        c.Address = *p.Address
    }
}
