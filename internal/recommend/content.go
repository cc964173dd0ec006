package recommend

import (
	"context"

	"github.com/google/uuid"

	"github.com/temcen/cinerec/pkg/models"
)

// directorWeight makes a shared director outweigh one shared genre but not two.
const directorWeight = 2

// SimilarMovies ranks movies sharing a genre or the director with movieID.
// The score is directorWeight for a shared director plus one per shared
// genre; equal scores are ordered by average rating. The source movie is
// never returned. limit <= 0 selects the configured default.
func (e *Engine) SimilarMovies(ctx context.Context, movieID uuid.UUID, limit int) ([]models.RankedMovie, error) {
	limit = positiveOr(limit, e.opts.SimilarLimit)

	source, err := e.movieByID(ctx, movieID)
	if err != nil {
		return nil, err
	}

	sourceGenres := models.GenreSet(source.Genres)
	if len(sourceGenres) == 0 && source.Director == "" {
		return []models.RankedMovie{}, nil
	}

	candidates, err := e.moviesMatching(ctx, models.MovieFilter{
		AnyGenres: source.Genres,
		Director:  source.Director,
		ExcludeID: &source.ID,
	})
	if err != nil {
		return nil, err
	}

	var kept []models.Movie
	var contentScores []float64
	for _, c := range candidates {
		if c.ID == source.ID {
			continue
		}
		score := contentScore(source, sourceGenres, c)
		if score == 0 {
			continue
		}
		kept = append(kept, c)
		contentScores = append(contentScores, score)
	}

	stats, _, err := e.movieStats(ctx, kept)
	if err != nil {
		return nil, err
	}

	ranked := make([]models.RankedMovie, len(kept))
	for i, m := range kept {
		ranked[i] = models.RankedMovie{Movie: m, Stats: stats[i], Score: contentScores[i]}
	}

	sortRanked(ranked, func(m models.RankedMovie) float64 { return m.Stats.AverageRating })
	return truncate(ranked, limit), nil
}

func contentScore(source models.Movie, sourceGenres map[string]struct{}, candidate models.Movie) float64 {
	score := float64(models.SharedGenres(sourceGenres, candidate.Genres))
	if models.SameDirector(source.Director, candidate.Director) {
		score += directorWeight
	}
	return score
}
