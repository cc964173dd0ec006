package recommend

import (
	"context"

	"github.com/temcen/cinerec/pkg/models"
)

// TopRated ranks movies with at least minReviews reviews by average rating.
// A negative minReviews selects the configured threshold; 0 admits every
// movie. limit <= 0 selects the configured default.
func (e *Engine) TopRated(ctx context.Context, limit, minReviews int) ([]models.RankedMovie, error) {
	limit = positiveOr(limit, e.opts.TopRatedLimit)
	if minReviews < 0 {
		minReviews = e.opts.MinReviews
	}

	movies, err := e.moviesMatching(ctx, models.MovieFilter{})
	if err != nil {
		return nil, err
	}

	stats, _, err := e.movieStats(ctx, movies)
	if err != nil {
		return nil, err
	}

	ranked := make([]models.RankedMovie, 0, len(movies))
	for i, m := range movies {
		if stats[i].ReviewCount < minReviews {
			continue
		}
		ranked = append(ranked, models.RankedMovie{
			Movie: m,
			Stats: stats[i],
			Score: stats[i].AverageRating,
		})
	}

	sortRanked(ranked, nil)
	return truncate(ranked, limit), nil
}
