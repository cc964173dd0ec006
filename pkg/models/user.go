package models

import (
	"time"

	"github.com/google/uuid"
)

type UserProfile struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	PreferredGenres []string  `json:"preferred_genres" db:"preferred_genres"`
}

// Rating is a user's score for a movie, taken from the review that carries it.
type Rating struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	MovieID   uuid.UUID `json:"movie_id" db:"movie_id"`
	Score     float64   `json:"rating" db:"rating" validate:"required,min=1,max=5"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Neighbor struct {
	UserID       uuid.UUID `json:"user_id"`
	Similarity   float64   `json:"similarity"`
	SharedMovies int       `json:"shared_movies"`
}

type SimilarityResult struct {
	UserID      uuid.UUID `json:"user_id"`
	OtherUserID uuid.UUID `json:"other_user_id"`
	Similarity  float64   `json:"similarity"`
}
