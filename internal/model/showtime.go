package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Showtime represents a scheduled screening of a movie in a hall.
// Price is the per-seat price charged for new reservations; it is
// copied into each reservation at admission time.
//
// Fields:
//  ID        – primary key identifier.
//  MovieID   – movie being screened.
//  HallID    – hall where the showtime takes place.
//  StartTime – when the showtime begins.
//  EndTime   – when it ends (must be after StartTime).
//  Price     – non-negative seat price.
//  Movie     – optional movie summary, populated by listings.
type Showtime struct {
    ID        uint64          `json:"id"`              // showtimes.id
    MovieID   uint64          `json:"movie_id"`        // showtimes.movie_id
    HallID    uint64          `json:"hall_id"`         // showtimes.hall_id
    StartTime time.Time       `json:"start_time"`      // showtimes.starts_at
    EndTime   time.Time       `json:"end_time"`        // showtimes.ends_at
    Price     decimal.Decimal `json:"price"`           // showtimes.price
    Movie     *MovieSummary   `json:"movie,omitempty"` // joined from movies
    CreatedAt time.Time       `json:"created_at"`      // showtimes.created_at
    UpdatedAt time.Time       `json:"updated_at"`      // showtimes.updated_at
}

// MovieSummary is the short movie view embedded in showtime listings.
type MovieSummary struct {
    ID       uint64 `json:"id"`
    Title    string `json:"title"`
    Duration uint32 `json:"duration"`
}

// ShowtimePatch lists the showtime fields an admin may change.
type ShowtimePatch struct {
    MovieID   *uint64          `json:"movie_id" validate:"omitempty,min=1"`
    HallID    *uint64          `json:"hall_id" validate:"omitempty,min=1"`
    StartTime *time.Time       `json:"start_time"`
    EndTime   *time.Time       `json:"end_time"`
    Price     *decimal.Decimal `json:"price"`
}

// Apply copies every non-nil field of the patch onto s.
func (p ShowtimePatch) Apply(s *Showtime) {
    if p.MovieID != nil {
        s.MovieID = *p.MovieID
    }
    if p.HallID != nil {
        s.HallID = *p.HallID
    }
    if p.StartTime != nil {
        s.StartTime = p.StartTime.UTC()
    }
    if p.EndTime != nil {
        s.EndTime = p.EndTime.UTC()
    }
    if p.Price != nil {
        s.Price = *p.Price
    }
}

// ShowtimeFilter narrows a showtime listing.  Zero values disable a
// filter.  Day matches showtimes starting on that calendar date (UTC).
type ShowtimeFilter struct {
    MovieID  uint64
    CinemaID uint64
    HallID   uint64
    Day      *Date
}
