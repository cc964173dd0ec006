package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/temcen/cinerec/internal/config"
	"github.com/temcen/cinerec/internal/database"
	"github.com/temcen/cinerec/internal/recommend"
	"github.com/temcen/cinerec/internal/store"
)

type Services struct {
	Auth           *AuthService
	Health         *HealthService
	RateLimit      *RateLimitService
	Recommendation *RecommendationService
	Metrics        *Metrics
}

// New wires the services of the API server.
func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	metrics := NewMetrics(logger)

	ranking, err := NewRanking(cfg, logger, db, metrics)
	if err != nil {
		return nil, err
	}

	return &Services{
		Auth:           NewAuthService(cfg, logger, db.Redis),
		Health:         NewHealthService(cfg, logger, db, ranking.Breaker),
		RateLimit:      NewRateLimitService(cfg, logger, db.Redis),
		Recommendation: NewRecommendationService(ranking.Engine, cfg.Recommendation, metrics, logger),
		Metrics:        metrics,
	}, nil
}

// Ranking is the engine together with the store it reads from.
type Ranking struct {
	Engine *recommend.Engine
	Reader store.Reader
	// Breaker is nil when the circuit breaker is disabled.
	Breaker BreakerStater
}

// NewRanking opens the configured store, guards it with a circuit breaker
// when enabled and builds the engine on top of it.
func NewRanking(cfg *config.Config, logger *logrus.Logger, db *database.Database, metrics *Metrics) (*Ranking, error) {
	driver := cfg.Storage.Driver

	reader, err := store.Open(driver, db.Backends(cfg.Storage.SeedFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", driver, err)
	}

	ranking := &Ranking{Reader: reader}
	if cfg.Breaker.Enabled {
		guard := store.NewGuard(reader, store.BreakerSettings{
			Name:             "store-" + driver,
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
			OnStateChange: func(_ string, _, to gobreaker.State) {
				metrics.ObserveBreaker(driver, to)
			},
		}, logger)
		metrics.ObserveBreaker(driver, guard.State())
		ranking.Reader = guard
		ranking.Breaker = guard
	}

	ranking.Engine = recommend.New(ranking.Reader, EngineOptions(cfg))

	logger.WithFields(logrus.Fields{
		"driver":  driver,
		"breaker": cfg.Breaker.Enabled,
	}).Info("Recommendation engine ready")

	return ranking, nil
}

// EngineOptions maps the recommendation settings onto engine options.
func EngineOptions(cfg *config.Config) recommend.Options {
	rc := cfg.Recommendation
	return recommend.Options{
		Neighbors:                rc.Neighbors,
		LikedThreshold:           rc.LikedThreshold,
		RecommendLimit:           rc.DefaultLimit,
		SimilarLimit:             rc.SimilarLimit,
		TrendingDays:             rc.TrendingDays,
		TrendingLimit:            rc.TrendingLimit,
		TopRatedLimit:            rc.TopRatedLimit,
		MinReviews:               rc.MinReviews,
		MaxConcurrency:           cfg.Storage.MaxConcurrency,
		ReadTimeout:              cfg.Storage.ReadTimeout,
		EmptyPreferencesMatchAll: rc.EmptyPreferencesMatchAll,
	}
}
