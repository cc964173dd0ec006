package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cinerec/internal/config"
	"github.com/temcen/cinerec/internal/recommend"
	"github.com/temcen/cinerec/pkg/models"
)

// RecommendationService exposes the ranking engine to the request layer and
// records latency and failures of every operation.
type RecommendationService struct {
	engine     Recommender
	minReviews int
	metrics    *Metrics
	logger     *logrus.Logger
}

func NewRecommendationService(engine Recommender, cfg config.RecommendationConfig, metrics *Metrics, logger *logrus.Logger) *RecommendationService {
	return &RecommendationService{
		engine:     engine,
		minReviews: cfg.MinReviews,
		metrics:    metrics,
		logger:     logger,
	}
}

func (s *RecommendationService) Personalized(ctx context.Context, userID uuid.UUID, limit int) ([]models.RankedMovie, error) {
	return observe(s, "personalized", logrus.Fields{"user_id": userID, "limit": limit}, func() ([]models.RankedMovie, error) {
		return s.engine.Recommend(ctx, userID, limit)
	})
}

func (s *RecommendationService) SimilarMovies(ctx context.Context, movieID uuid.UUID, limit int) ([]models.RankedMovie, error) {
	return observe(s, "similar_movies", logrus.Fields{"movie_id": movieID, "limit": limit}, func() ([]models.RankedMovie, error) {
		return s.engine.SimilarMovies(ctx, movieID, limit)
	})
}

func (s *RecommendationService) Trending(ctx context.Context, windowDays, limit int) ([]models.RankedMovie, error) {
	return observe(s, "trending", logrus.Fields{"days": windowDays, "limit": limit}, func() ([]models.RankedMovie, error) {
		return s.engine.Trending(ctx, windowDays, limit)
	})
}

// TopRated uses the configured review threshold when minReviews is negative.
func (s *RecommendationService) TopRated(ctx context.Context, limit, minReviews int) ([]models.RankedMovie, error) {
	if minReviews < 0 {
		minReviews = s.minReviews
	}
	return observe(s, "top_rated", logrus.Fields{"limit": limit, "min_reviews": minReviews}, func() ([]models.RankedMovie, error) {
		return s.engine.TopRated(ctx, limit, minReviews)
	})
}

func (s *RecommendationService) Neighbors(ctx context.Context, userID uuid.UUID, k int) ([]models.Neighbor, error) {
	return observe(s, "neighbors", logrus.Fields{"user_id": userID, "k": k}, func() ([]models.Neighbor, error) {
		return s.engine.TopNeighbors(ctx, userID, k)
	})
}

func (s *RecommendationService) Similarity(ctx context.Context, a, b uuid.UUID) (*models.SimilarityResult, error) {
	return observe(s, "similarity", logrus.Fields{"user_id": a, "other_user_id": b}, func() (*models.SimilarityResult, error) {
		score, err := s.engine.Similarity(ctx, a, b)
		if err != nil {
			return nil, err
		}
		return &models.SimilarityResult{UserID: a, OtherUserID: b, Similarity: score}, nil
	})
}

func observe[T any](s *RecommendationService, operation string, fields logrus.Fields, fn func() (T, error)) (T, error) {
	start := time.Now()
	result, err := fn()
	elapsed := time.Since(start)
	s.metrics.RankingDuration.WithLabelValues(operation).Observe(elapsed.Seconds())

	if err != nil {
		kind := errorKind(err)
		s.metrics.RankingErrors.WithLabelValues(operation, kind).Inc()

		entry := s.logger.WithFields(fields).WithField("operation", operation).WithError(err)
		switch kind {
		case "not_found", "canceled":
			entry.Debug("Ranking request rejected")
		default:
			entry.Error("Ranking failed")
		}
		return result, err
	}

	s.logger.WithFields(fields).WithFields(logrus.Fields{
		"operation":   operation,
		"duration_ms": elapsed.Milliseconds(),
	}).Debug("Ranking completed")
	return result, nil
}

// errorKind is the error label of cinerec_ranking_errors_total.
func errorKind(err error) string {
	switch {
	case errors.Is(err, recommend.ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, recommend.ErrCollaboratorFailure):
		return "storage"
	default:
		return "internal"
	}
}
