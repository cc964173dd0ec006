package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/temcen/cinerec/pkg/models"
)

// Recommender is the ranking engine behind the services.
type Recommender interface {
	Similarity(ctx context.Context, a, b uuid.UUID) (float64, error)
	TopNeighbors(ctx context.Context, userID uuid.UUID, k int) ([]models.Neighbor, error)
	Recommend(ctx context.Context, userID uuid.UUID, limit int) ([]models.RankedMovie, error)
	SimilarMovies(ctx context.Context, movieID uuid.UUID, limit int) ([]models.RankedMovie, error)
	Trending(ctx context.Context, windowDays, limit int) ([]models.RankedMovie, error)
	TopRated(ctx context.Context, limit, minReviews int) ([]models.RankedMovie, error)
}

// RecommendationServiceInterface defines the operations exposed to the request layer
type RecommendationServiceInterface interface {
	Personalized(ctx context.Context, userID uuid.UUID, limit int) ([]models.RankedMovie, error)
	SimilarMovies(ctx context.Context, movieID uuid.UUID, limit int) ([]models.RankedMovie, error)
	Trending(ctx context.Context, windowDays, limit int) ([]models.RankedMovie, error)
	TopRated(ctx context.Context, limit, minReviews int) ([]models.RankedMovie, error)
	Neighbors(ctx context.Context, userID uuid.UUID, k int) ([]models.Neighbor, error)
	Similarity(ctx context.Context, a, b uuid.UUID) (*models.SimilarityResult, error)
}

// DigestPublisher delivers digest events to the notification pipeline.
type DigestPublisher interface {
	PublishDigest(ctx context.Context, event models.DigestEvent) error
}

// UserLister enumerates the recipients of a digest run.
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}
