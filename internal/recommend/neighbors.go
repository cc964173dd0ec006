package recommend

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/temcen/cinerec/pkg/models"
)

// candidateNeighbor keeps the ratings of a ranked user so Recommend does not
// read them twice.
type candidateNeighbor struct {
	models.Neighbor
	ratings []models.Rating
}

// TopNeighbors ranks every other known user by similarity to userID and
// returns at most k of them, most similar first. Ties are broken by user id.
// k <= 0 selects the configured neighbour count.
func (e *Engine) TopNeighbors(ctx context.Context, userID uuid.UUID, k int) ([]models.Neighbor, error) {
	candidates, err := e.rankNeighbors(ctx, userID, positiveOr(k, e.opts.Neighbors))
	if err != nil {
		return nil, err
	}

	neighbors := make([]models.Neighbor, len(candidates))
	for i, c := range candidates {
		neighbors[i] = c.Neighbor
	}
	return neighbors, nil
}

func (e *Engine) rankNeighbors(ctx context.Context, userID uuid.UUID, k int) ([]candidateNeighbor, error) {
	userIDs, err := e.listUserIDs(ctx)
	if err != nil {
		return nil, err
	}
	target, err := e.ratingsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	others := make([]uuid.UUID, 0, len(userIDs))
	for _, id := range userIDs {
		if id != userID {
			others = append(others, id)
		}
	}

	candidates := make([]candidateNeighbor, len(others))
	for i, id := range others {
		candidates[i].UserID = id
	}

	// Without ratings of its own the target agrees with nobody.
	if len(target) > 0 {
		err = e.fanOut(ctx, len(others), func(ctx context.Context, i int) error {
			ratings, err := e.ratingsByUser(ctx, others[i])
			if err != nil {
				return err
			}
			score, shared := SimilarityFromRatings(target, ratings)
			candidates[i].Similarity = score
			candidates[i].SharedMovies = shared
			candidates[i].ratings = ratings
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return idLess(candidates[i].UserID, candidates[j].UserID)
	})

	return truncate(candidates, k), nil
}
