package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cinerec/internal/config"
	"github.com/temcen/cinerec/pkg/models"
)

type RateLimitService struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
	now         func() time.Time
}

func NewRateLimitService(cfg *config.Config, logger *logrus.Logger, redisClient *redis.Client) *RateLimitService {
	return &RateLimitService{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
		now:         time.Now,
	}
}

// CheckLimit records a request for the client and returns its quota. Requests
// are tracked in a sliding window backed by a Redis sorted set.
func (s *RateLimitService) CheckLimit(ctx context.Context, clientID, userTier string) (*models.RateLimitInfo, error) {
	_, info, err := s.record(ctx, clientID, userTier)
	return info, err
}

// IsAllowed records the request and reports whether it fits into the
// client's window.
func (s *RateLimitService) IsAllowed(ctx context.Context, clientID, userTier string) (bool, *models.RateLimitInfo, error) {
	previous, info, err := s.record(ctx, clientID, userTier)
	if err != nil {
		return false, nil, err
	}
	return previous < info.Limit, info, nil
}

// record returns the number of requests seen in the window before this one.
func (s *RateLimitService) record(ctx context.Context, clientID, userTier string) (int, *models.RateLimitInfo, error) {
	limit := s.getLimitForTier(userTier)
	window := s.config.Auth.RateLimit.Window

	key := fmt.Sprintf("rate_limit:client:%s", clientID)

	now := s.now()
	windowStart := now.Add(-window)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pipe := s.redisClient.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.Expire(ctx, key, window)

	info := &models.RateLimitInfo{
		Limit:     limit,
		ResetTime: now.Add(window).Unix(),
	}

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.WithError(err).Error("Failed to execute rate limit pipeline")
		// Fail open while Redis is unavailable
		info.Remaining = max(limit-1, 0)
		return 0, info, nil
	}

	previous := int(countCmd.Val())
	info.Remaining = max(limit-previous-1, 0)
	return previous, info, nil
}

func (s *RateLimitService) getLimitForTier(userTier string) int {
	switch userTier {
	case "premium":
		return s.config.Auth.RateLimit.Premium
	case "enterprise":
		return s.config.Auth.RateLimit.Premium * 10
	default:
		return s.config.Auth.RateLimit.Default
	}
}
