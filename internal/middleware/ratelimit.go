package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cinerec/pkg/models"
)

// Limiter decides whether a client may issue another request.
type Limiter interface {
	IsAllowed(ctx context.Context, clientID, userTier string) (bool, *models.RateLimitInfo, error)
}

func RateLimit(limiter Limiter, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, ok := ClientID(c)
		if !ok {
			logger.Error("Rate limit middleware called without client context")
			c.Next()
			return
		}

		userTier := c.GetString(userTierKey)
		if userTier == "" {
			userTier = "free"
		}

		allowed, info, err := limiter.IsAllowed(c.Request.Context(), clientID, userTier)
		if err != nil {
			logger.WithError(err).Error("Failed to check rate limit")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime, 10))

		if !allowed {
			logger.WithFields(logrus.Fields{
				"client_id": clientID,
				"user_tier": userTier,
				"limit":     info.Limit,
			}).Warn("Rate limit exceeded")

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Rate limit exceeded. Please try again later.",
				},
				"rate_limit": info,
			})
			return
		}

		c.Next()
	}
}
