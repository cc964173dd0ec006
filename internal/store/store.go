// Package store provides read-only access to the rating and review corpus
// behind the recommendation engine. Every backend implements Reader; none of
// them is ever written to by the engine.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/temcen/cinerec/pkg/models"
)

// ErrNotFound is returned by UserByID for an unknown user.
var ErrNotFound = errors.New("store: not found")

// Reader is the storage read interface consumed by the recommendation engine.
// Results are best-effort snapshots; no consistency is promised across calls.
type Reader interface {
	// RatingsByUser returns every rating made by userID. An unknown user
	// yields an empty slice, not an error.
	RatingsByUser(ctx context.Context, userID uuid.UUID) ([]models.Rating, error)

	// ReviewsByMovie returns every rating left on movieID, with timestamps.
	ReviewsByMovie(ctx context.Context, movieID uuid.UUID) ([]models.Rating, error)

	// MoviesMatching returns the movies selected by filter.
	MoviesMatching(ctx context.Context, filter models.MovieFilter) ([]models.Movie, error)

	// UserByID returns the profile of userID or ErrNotFound.
	UserByID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)

	// ListUserIDs returns the identifiers of every known user.
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

const (
	DriverPostgres = "postgres"
	DriverNeo4j    = "neo4j"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// ErrUnknownDriver is returned when the configured storage driver is not supported.
var ErrUnknownDriver = errors.New("store: unknown driver")

func unknownDriver(name string) error {
	return fmt.Errorf("%w %q", ErrUnknownDriver, name)
}

func missingBackend(name string) error {
	return fmt.Errorf("store: %s driver selected but no connection configured", name)
}

// matches evaluates filter against a movie in process. Backends that cannot
// express the filter natively, and the memory store, use it directly.
func matches(filter models.MovieFilter, movie models.Movie) bool {
	if filter.ExcludeID != nil && movie.ID == *filter.ExcludeID {
		return false
	}
	if len(filter.IDs) > 0 {
		found := false
		for _, id := range filter.IDs {
			if id == movie.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	hasGenres := len(filter.AnyGenres) > 0
	hasDirector := filter.Director != ""
	if !hasGenres && !hasDirector {
		return true
	}
	if hasGenres && models.SharedGenres(models.GenreSet(filter.AnyGenres), movie.Genres) > 0 {
		return true
	}
	return hasDirector && models.SameDirector(filter.Director, movie.Director)
}
