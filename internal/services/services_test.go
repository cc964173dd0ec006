package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/temcen/cinerec/internal/config"
	"github.com/temcen/cinerec/internal/database"
	"github.com/temcen/cinerec/internal/store"
)

func TestNewRanking(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: store.DriverMemory, ReadTimeout: time.Second, MaxConcurrency: 2},
		Recommendation: config.RecommendationConfig{
			Neighbors:      3,
			LikedThreshold: 4,
			DefaultLimit:   7,
			MinReviews:     2,
		},
	}

	t.Run("without breaker", func(t *testing.T) {
		ranking, err := NewRanking(cfg, quietLogger(), &database.Database{}, NewMetrics(quietLogger()))
		require.NoError(t, err)
		assert.Nil(t, ranking.Breaker)
		assert.IsType(t, &store.MemoryStore{}, ranking.Reader)

		opts := ranking.Engine.Options()
		assert.Equal(t, 3, opts.Neighbors)
		assert.Equal(t, 7, opts.RecommendLimit)
		assert.Equal(t, 2, opts.MinReviews)
		assert.Equal(t, time.Second, opts.ReadTimeout)

		movies, err := ranking.Engine.Trending(context.Background(), 7, 10)
		require.NoError(t, err)
		assert.Empty(t, movies)
	})

	t.Run("with breaker", func(t *testing.T) {
		guarded := *cfg
		guarded.Breaker = config.BreakerConfig{Enabled: true, FailureThreshold: 2, Timeout: time.Second}

		ranking, err := NewRanking(&guarded, quietLogger(), &database.Database{}, NewMetrics(quietLogger()))
		require.NoError(t, err)
		require.NotNil(t, ranking.Breaker)
		assert.Equal(t, gobreaker.StateClosed, ranking.Breaker.State())
		assert.IsType(t, &store.Guard{}, ranking.Reader)
	})

	t.Run("backend missing", func(t *testing.T) {
		missing := *cfg
		missing.Storage.Driver = store.DriverPostgres

		_, err := NewRanking(&missing, quietLogger(), &database.Database{}, NewMetrics(quietLogger()))
		assert.Error(t, err)
	})
}
