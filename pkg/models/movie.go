package models

import (
	"time"

	"github.com/google/uuid"
)

type Movie struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Genres      []string  `json:"genres" db:"genres"`
	Director    string    `json:"director,omitempty" db:"director"`
	ReleaseDate time.Time `json:"release_date,omitempty" db:"release_date"`
}

// MovieStats is derived from a movie's reviews at query time and never persisted.
type MovieStats struct {
	ReviewCount   int     `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
}

// RankedMovie is the output record of every ranker. Only the ordering of a
// ranked list is meaningful; Score values are not comparable across rankers.
type RankedMovie struct {
	Movie
	Stats MovieStats `json:"stats"`
	Score float64    `json:"score"`
}

// MovieFilter selects movies from the store. The zero value matches every
// movie. AnyGenres and Director are OR-ed when both are set; IDs and
// ExcludeID always narrow the result.
type MovieFilter struct {
	IDs       []uuid.UUID
	AnyGenres []string
	Director  string
	ExcludeID *uuid.UUID
}

// IsZero reports whether the filter matches every movie.
func (f MovieFilter) IsZero() bool {
	return len(f.IDs) == 0 && len(f.AnyGenres) == 0 && f.Director == "" && f.ExcludeID == nil
}
