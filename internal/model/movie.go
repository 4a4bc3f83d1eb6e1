package model

import (
    "database/sql/driver"
    "encoding/json"
    "fmt"
    "time"
)

// Genre groups movies for browsing.
type Genre struct {
    ID   uint64 `json:"id"`   // genres.id
    Name string `json:"name"` // genres.name
}

// Movie is a film that can be scheduled into halls as showtimes.
// Duration is expressed in minutes and drives the strict showtime
// end-time policy.
type Movie struct {
    ID          uint64    `json:"id"`                   // movies.id
    Title       string    `json:"title"`                // movies.title
    GenreID     uint64    `json:"genre_id"`             // movies.genre_id
    Duration    uint32    `json:"duration"`             // movies.duration_min
    ReleaseDate Date      `json:"release_date"`         // movies.release_date
    Description *string   `json:"description"`          // movies.description (nullable)
    PosterURL   *string   `json:"poster_url"`           // movies.poster_url (nullable)
    CreatedAt   time.Time `json:"created_at"`           // movies.created_at
    UpdatedAt   time.Time `json:"updated_at"`           // movies.updated_at
}

// MoviePatch lists the movie fields an admin may change.
type MoviePatch struct {
    Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
    GenreID     *uint64 `json:"genre_id" validate:"omitempty,min=1"`
    Duration    *uint32 `json:"duration" validate:"omitempty,min=1"`
    ReleaseDate *Date   `json:"release_date"`
    Description *string `json:"description"`
    PosterURL   *string `json:"poster_url" validate:"omitempty,url,max=255"`
}

// Apply copies every non-nil field of the patch onto m.
func (p MoviePatch) Apply(m *Movie) {
    if p.Title != nil {
        m.Title = *p.Title
    }
    if p.GenreID != nil {
        m.GenreID = *p.GenreID
    }
    if p.Duration != nil {
        m.Duration = *p.Duration
    }
    if p.ReleaseDate != nil {
        m.ReleaseDate = *p.ReleaseDate
    }
    if p.Description != nil {
        m.Description = p.Description
    }
    if p.PosterURL != nil {
        m.PosterURL = p.PosterURL
    }
}

// MovieFilter narrows a movie listing.  Zero values disable a filter.
type MovieFilter struct {
    GenreID        uint64
    ReleasedAfter  *time.Time
    ReleasedBefore *time.Time
}

// DateLayout is the wire and column format of a calendar date.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day.  It is encoded as
// "YYYY-MM-DD" in JSON and stored in DATE columns.
type Date struct{ time.Time }

// NewDate truncates t to midnight UTC.
func NewDate(t time.Time) Date {
    y, m, d := t.Date()
    return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
    t, err := time.Parse(DateLayout, s)
    if err != nil {
        return Date{}, err
    }
    return Date{t}, nil
}

func (d Date) String() string { return d.Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
    return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
    var s string
    if err := json.Unmarshal(b, &s); err != nil {
        return err
    }
    parsed, err := ParseDate(s)
    if err != nil {
        return fmt.Errorf("release date must be YYYY-MM-DD: %w", err)
    }
    *d = parsed
    return nil
}

// Scan implements sql.Scanner; the driver runs with parseTime=true.
func (d *Date) Scan(src any) error {
    switch v := src.(type) {
    case time.Time:
        *d = NewDate(v)
        return nil
    case []byte:
        return d.scanString(string(v))
    case string:
        return d.scanString(v)
    case nil:
        *d = Date{}
        return nil
    }
    return fmt.Errorf("cannot scan %T into Date", src)
}

func (d *Date) scanString(s string) error {
    parsed, err := ParseDate(s)
    if err != nil {
        return err
    }
    *d = parsed
    return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) { return d.String(), nil }
