package recommend

import (
	"context"

	"github.com/google/uuid"

	"github.com/temcen/cinerec/pkg/models"
)

// Recommend returns movies liked by the nearest neighbours of userID that
// fall into the user's preferred genres. Each movie scores one vote per
// neighbour rating at or above the liked threshold. limit <= 0 selects the
// configured default.
//
// Neighbours with zero similarity cast no votes, even when they rank inside
// the top k: a movie liked only by users who share no rated movie with
// userID is never recommended.
//
// An unknown user yields ErrNotFound. A user without neighbours, or without
// preferred genres while EmptyPreferencesMatchAll is off, gets an empty list.
func (e *Engine) Recommend(ctx context.Context, userID uuid.UUID, limit int) ([]models.RankedMovie, error) {
	limit = positiveOr(limit, e.opts.RecommendLimit)

	user, err := e.userByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	preferred := models.GenreSet(user.PreferredGenres)
	matchAll := len(preferred) == 0 && e.opts.EmptyPreferencesMatchAll
	if len(preferred) == 0 && !matchAll {
		return []models.RankedMovie{}, nil
	}

	neighbors, err := e.rankNeighbors(ctx, userID, e.opts.Neighbors)
	if err != nil {
		return nil, err
	}

	votes := make(map[uuid.UUID]int)
	for _, n := range neighbors {
		// A neighbour without common movies has no opinion about this user.
		if n.Similarity == 0 {
			continue
		}
		for _, r := range n.ratings {
			if r.Score >= e.opts.LikedThreshold {
				votes[r.MovieID]++
			}
		}
	}
	if len(votes) == 0 {
		return []models.RankedMovie{}, nil
	}

	ids := make([]uuid.UUID, 0, len(votes))
	for id := range votes {
		ids = append(ids, id)
	}
	movies, err := e.moviesMatching(ctx, models.MovieFilter{IDs: ids})
	if err != nil {
		return nil, err
	}

	ranked := make([]models.RankedMovie, 0, len(movies))
	for _, m := range movies {
		count, ok := votes[m.ID]
		if !ok {
			continue
		}
		if !matchAll && models.SharedGenres(preferred, m.Genres) == 0 {
			continue
		}
		ranked = append(ranked, models.RankedMovie{Movie: m, Score: float64(count)})
	}

	sortRanked(ranked, nil)
	ranked = truncate(ranked, limit)

	if err := e.attachStats(ctx, ranked); err != nil {
		return nil, err
	}
	return ranked, nil
}

// attachStats fills in the review statistics of already ranked movies.
func (e *Engine) attachStats(ctx context.Context, ranked []models.RankedMovie) error {
	movies := make([]models.Movie, len(ranked))
	for i := range ranked {
		movies[i] = ranked[i].Movie
	}

	stats, _, err := e.movieStats(ctx, movies)
	if err != nil {
		return err
	}
	for i := range ranked {
		ranked[i].Stats = stats[i]
	}
	return nil
}
