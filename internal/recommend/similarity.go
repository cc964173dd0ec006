package recommend

import (
	"context"
	"math"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/temcen/cinerec/pkg/models"
)

const maxRating = 5.0

// Similarity scores the agreement of two users on the movies both rated. The
// result lies in [0,1] and is symmetric. Users without common movies,
// including unknown users, score 0.
func (e *Engine) Similarity(ctx context.Context, a, b uuid.UUID) (float64, error) {
	var ratingsA, ratingsB []models.Rating

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ratingsA, err = e.ratingsByUser(gctx, a)
		return err
	})
	g.Go(func() error {
		var err error
		ratingsB, err = e.ratingsByUser(gctx, b)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	score, _ := SimilarityFromRatings(ratingsA, ratingsB)
	return score, nil
}

// SimilarityFromRatings is the pure form of Similarity. It also returns the
// size of the common set.
func SimilarityFromRatings(a, b []models.Rating) (float64, int) {
	byMovieA := ratingsByMovie(a)
	byMovieB := ratingsByMovie(b)

	contributions := make([]float64, 0, min(len(byMovieA), len(byMovieB)))
	for movieID, ra := range byMovieA {
		if rb, ok := byMovieB[movieID]; ok {
			contributions = append(contributions, agreement(ra, rb))
		}
	}
	// Summation order must not depend on map iteration or argument order.
	sort.Float64s(contributions)

	return meanOrZero(contributions), len(contributions)
}

// agreement is 1 for identical ratings and falls linearly with their gap.
func agreement(a, b float64) float64 {
	return math.Max(0, (maxRating-math.Abs(a-b))/maxRating)
}

func ratingsByMovie(ratings []models.Rating) map[uuid.UUID]float64 {
	out := make(map[uuid.UUID]float64, len(ratings))
	for _, r := range ratings {
		out[r.MovieID] = r.Score
	}
	return out
}
