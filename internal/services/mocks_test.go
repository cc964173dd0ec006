package services

import (
	"context"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/temcen/cinerec/pkg/models"
)

type MockRecommender struct {
	mock.Mock
}

func (m *MockRecommender) Similarity(ctx context.Context, a, b uuid.UUID) (float64, error) {
	args := m.Called(ctx, a, b)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockRecommender) TopNeighbors(ctx context.Context, userID uuid.UUID, k int) ([]models.Neighbor, error) {
	args := m.Called(ctx, userID, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Neighbor), args.Error(1)
}

func (m *MockRecommender) Recommend(ctx context.Context, userID uuid.UUID, limit int) ([]models.RankedMovie, error) {
	args := m.Called(ctx, userID, limit)
	return rankedArg(args)
}

func (m *MockRecommender) SimilarMovies(ctx context.Context, movieID uuid.UUID, limit int) ([]models.RankedMovie, error) {
	args := m.Called(ctx, movieID, limit)
	return rankedArg(args)
}

func (m *MockRecommender) Trending(ctx context.Context, windowDays, limit int) ([]models.RankedMovie, error) {
	args := m.Called(ctx, windowDays, limit)
	return rankedArg(args)
}

func (m *MockRecommender) TopRated(ctx context.Context, limit, minReviews int) ([]models.RankedMovie, error) {
	args := m.Called(ctx, limit, minReviews)
	return rankedArg(args)
}

func rankedArg(args mock.Arguments) ([]models.RankedMovie, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RankedMovie), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishDigest(ctx context.Context, event models.DigestEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type stubLister struct {
	ids []uuid.UUID
	err error
}

func (s stubLister) ListUserIDs(context.Context) ([]uuid.UUID, error) {
	return s.ids, s.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}
