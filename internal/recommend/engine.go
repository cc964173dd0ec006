// Package recommend ranks movies and users from the rating corpus: user
// similarity, nearest neighbours, collaborative recommendations, content
// similarity, trending and top-rated lists. Every operation is a stateless
// read of the current store snapshot.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/temcen/cinerec/internal/store"
	"github.com/temcen/cinerec/pkg/models"
)

// Engine implements the ranking operations over a store.Reader. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	store store.Reader
	opts  Options
}

func New(reader store.Reader, opts Options) *Engine {
	return &Engine{
		store: reader,
		opts:  opts.withDefaults(),
	}
}

// Options returns the effective options of the engine.
func (e *Engine) Options() Options {
	return e.opts
}

// read runs one store call under the per-read timeout and classifies its
// failure as a collaborator error.
func read[T any](ctx context.Context, e *Engine, op string, fn func(context.Context) (T, error)) (T, error) {
	readCtx, cancel := context.WithTimeout(ctx, e.opts.ReadTimeout)
	defer cancel()

	v, err := fn(readCtx)
	if err != nil {
		var zero T
		return zero, collaboratorError(op, err)
	}
	return v, nil
}

func (e *Engine) ratingsByUser(ctx context.Context, userID uuid.UUID) ([]models.Rating, error) {
	return read(ctx, e, "ratings_by_user", func(ctx context.Context) ([]models.Rating, error) {
		return e.store.RatingsByUser(ctx, userID)
	})
}

func (e *Engine) reviewsByMovie(ctx context.Context, movieID uuid.UUID) ([]models.Rating, error) {
	return read(ctx, e, "reviews_by_movie", func(ctx context.Context) ([]models.Rating, error) {
		return e.store.ReviewsByMovie(ctx, movieID)
	})
}

func (e *Engine) moviesMatching(ctx context.Context, filter models.MovieFilter) ([]models.Movie, error) {
	return read(ctx, e, "movies_matching", func(ctx context.Context) ([]models.Movie, error) {
		return e.store.MoviesMatching(ctx, filter)
	})
}

func (e *Engine) listUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	return read(ctx, e, "list_user_ids", func(ctx context.Context) ([]uuid.UUID, error) {
		return e.store.ListUserIDs(ctx)
	})
}

func (e *Engine) userByID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	readCtx, cancel := context.WithTimeout(ctx, e.opts.ReadTimeout)
	defer cancel()

	user, err := e.store.UserByID(readCtx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, collaboratorError("user_by_id", err)
	}
	return user, nil
}

func (e *Engine) movieByID(ctx context.Context, movieID uuid.UUID) (models.Movie, error) {
	movies, err := e.moviesMatching(ctx, models.MovieFilter{IDs: []uuid.UUID{movieID}})
	if err != nil {
		return models.Movie{}, err
	}
	for _, m := range movies {
		if m.ID == movieID {
			return m, nil
		}
	}
	return models.Movie{}, fmt.Errorf("movie %s: %w", movieID, ErrNotFound)
}

// fanOut calls fn for every index of n with at most MaxConcurrency calls in
// flight. The first error cancels the remaining calls and is returned.
func (e *Engine) fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.MaxConcurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

// movieStats reads the reviews of every movie and aggregates them.
func (e *Engine) movieStats(ctx context.Context, movies []models.Movie) ([]models.MovieStats, [][]models.Rating, error) {
	stats := make([]models.MovieStats, len(movies))
	reviews := make([][]models.Rating, len(movies))

	err := e.fanOut(ctx, len(movies), func(ctx context.Context, i int) error {
		r, err := e.reviewsByMovie(ctx, movies[i].ID)
		if err != nil {
			return err
		}
		reviews[i] = r
		stats[i] = statsOf(r)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return stats, reviews, nil
}

func statsOf(reviews []models.Rating) models.MovieStats {
	return models.MovieStats{
		ReviewCount:   len(reviews),
		AverageRating: meanOrZero(scores(reviews)),
	}
}

func scores(ratings []models.Rating) []float64 {
	out := make([]float64, len(ratings))
	for i, r := range ratings {
		out[i] = r.Score
	}
	return out
}

// meanOrZero is the zero-substitution policy for empty aggregates: the mean
// of no values is 0.
func meanOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// idLess orders identifiers by their canonical string form, the tie-break of
// every ranking.
func idLess(a, b uuid.UUID) bool {
	return a.String() < b.String()
}

// sortRanked orders by score, then by an optional secondary value, then by id.
func sortRanked(movies []models.RankedMovie, secondary func(models.RankedMovie) float64) {
	sort.SliceStable(movies, func(i, j int) bool {
		if movies[i].Score != movies[j].Score {
			return movies[i].Score > movies[j].Score
		}
		if secondary != nil {
			si, sj := secondary(movies[i]), secondary(movies[j])
			if si != sj {
				return si > sj
			}
		}
		return idLess(movies[i].ID, movies[j].ID)
	})
}

func truncate[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func withinWindow(t, since, now time.Time) bool {
	return !t.Before(since) && !t.After(now)
}
