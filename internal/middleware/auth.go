package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cinerec/pkg/models"
)

const (
	userIDKey   = "user_id"
	userTierKey = "user_tier"
	apiKeyKey   = "api_key"
	viaKeyKey   = "auth_via_api_key"
)

// Authenticator validates bearer credentials.
type Authenticator interface {
	ValidateToken(ctx context.Context, token string) (*models.JWTClaims, error)
	ValidateAPIKey(apiKey string) (string, error)
}

// Auth accepts either a JWT or a static API key in the Authorization header.
// API key clients act on behalf of the user named by X-User-ID, if any.
func Auth(authService Authenticator, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header is required")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			unauthorized(c, "Authorization header must be in format 'Bearer <token>'")
			return
		}

		tokenString := tokenParts[1]

		// API keys never contain dots, JWTs always do
		if !strings.Contains(tokenString, ".") {
			userTier, err := authService.ValidateAPIKey(tokenString)
			if err != nil {
				logger.WithError(err).Warn("Invalid API key")
				unauthorized(c, "Invalid API key")
				return
			}

			if userIDStr := c.GetHeader("X-User-ID"); userIDStr != "" {
				userID, err := uuid.Parse(userIDStr)
				if err != nil {
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
						"error": gin.H{
							"code":    "INVALID_USER_ID",
							"message": "Invalid user ID format",
						},
					})
					return
				}
				c.Set(userIDKey, userID)
			}

			c.Set(userTierKey, userTier)
			c.Set(apiKeyKey, tokenString)
			c.Set(viaKeyKey, true)
			c.Next()
			return
		}

		claims, err := authService.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.WithError(err).Warn("Invalid JWT token")
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(userTierKey, claims.UserTier)
		c.Set(apiKeyKey, claims.APIKey)
		c.Next()
	}
}

// UserID returns the user the request acts for.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(userIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// ClientID identifies the caller for rate limiting. Requests authenticated
// with an API key share the key's bucket whatever X-User-ID they carry;
// token holders are limited per user.
func ClientID(c *gin.Context) (string, bool) {
	key := c.GetString(apiKeyKey)
	if c.GetBool(viaKeyKey) && key != "" {
		return "key:" + key, true
	}
	if id, ok := UserID(c); ok {
		return "user:" + id.String(), true
	}
	if key != "" {
		return "key:" + key, true
	}
	return "", false
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
