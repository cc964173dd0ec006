package recommend

import (
	"context"
	"time"

	"github.com/temcen/cinerec/pkg/models"
)

// Trending ranks every movie by the number of reviews it received in the last
// windowDays days plus their average rating. Movies without recent reviews
// score 0 and sort last. Non-positive arguments select the configured
// defaults.
func (e *Engine) Trending(ctx context.Context, windowDays, limit int) ([]models.RankedMovie, error) {
	windowDays = positiveOr(windowDays, e.opts.TrendingDays)
	limit = positiveOr(limit, e.opts.TrendingLimit)

	now := e.opts.Now()
	since := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	movies, err := e.moviesMatching(ctx, models.MovieFilter{})
	if err != nil {
		return nil, err
	}

	stats, reviews, err := e.movieStats(ctx, movies)
	if err != nil {
		return nil, err
	}

	ranked := make([]models.RankedMovie, len(movies))
	for i, m := range movies {
		ranked[i] = models.RankedMovie{
			Movie: m,
			Stats: stats[i],
			Score: trendingScore(reviews[i], since, now),
		}
	}

	sortRanked(ranked, nil)
	return truncate(ranked, limit), nil
}

func trendingScore(reviews []models.Rating, since, now time.Time) float64 {
	var recent []float64
	for _, r := range reviews {
		if withinWindow(r.CreatedAt, since, now) {
			recent = append(recent, r.Score)
		}
	}
	return float64(len(recent)) + meanOrZero(recent)
}
