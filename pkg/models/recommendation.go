package models

import (
	"time"

	"github.com/google/uuid"
)

// Limits accepted by the request layer. The engine applies its own defaults
// when a field is zero.
type PersonalizedQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
}

type SimilarMoviesQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
}

type TrendingQuery struct {
	Days  int `form:"days" validate:"omitempty,min=1,max=365"`
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
}

type TopRatedQuery struct {
	Limit      int  `form:"limit" validate:"omitempty,min=1,max=100"`
	MinReviews *int `form:"min_reviews" validate:"omitempty,min=0,max=10000"`
}

type NeighborsQuery struct {
	K int `form:"k" validate:"omitempty,min=1,max=100"`
}

// ListResponse mirrors the envelope returned by the catalog service.
type ListResponse struct {
	Status string      `json:"status"`
	Count  int         `json:"count"`
	Data   interface{} `json:"data"`
}

// DigestEvent is published once per user by the weekly digest job and
// consumed by the notification service.
type DigestEvent struct {
	EventID     uuid.UUID     `json:"event_id"`
	UserID      uuid.UUID     `json:"user_id"`
	Movies      []DigestMovie `json:"movies"`
	GeneratedAt time.Time     `json:"generated_at"`
}

type DigestMovie struct {
	MovieID       uuid.UUID `json:"movie_id"`
	Title         string    `json:"title"`
	Genres        []string  `json:"genres"`
	AverageRating float64   `json:"average_rating"`
	Votes         int       `json:"votes"`
}
