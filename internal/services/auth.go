package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cinerec/internal/config"
	"github.com/temcen/cinerec/pkg/models"
)

const tokenIssuer = "github.com/temcen/cinerec"

type AuthService struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
	jwtSecret   []byte
	apiKeys     map[string]string
}

func NewAuthService(cfg *config.Config, logger *logrus.Logger, redisClient *redis.Client) *AuthService {
	apiKeys := make(map[string]string, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		tier := k.Tier
		if tier == "" {
			tier = "free"
		}
		apiKeys[k.Key] = tier
	}

	return &AuthService{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
		jwtSecret:   []byte(cfg.Auth.JWTSecret),
		apiKeys:     apiKeys,
	}
}

func (s *AuthService) GenerateToken(ctx context.Context, userID uuid.UUID, apiKey, userTier string) (string, error) {
	now := time.Now()
	claims := &models.JWTClaims{
		UserID:   userID,
		APIKey:   apiKey,
		UserTier: userTier,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Auth.TokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	// Session entry lets a token be revoked before it expires
	err = s.redisClient.Set(ctx, sessionKey(userID), tokenString, s.config.Auth.TokenTTL).Err()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to store session in Redis")
	}

	return tokenString, nil
}

func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	exists, err := s.redisClient.Exists(ctx, sessionKey(claims.UserID)).Result()
	if err != nil {
		// Redis outages must not lock every client out
		s.logger.WithError(err).Warn("Failed to check session in Redis")
	} else if exists == 0 {
		return nil, fmt.Errorf("session not found or expired")
	}

	return claims, nil
}

func (s *AuthService) RevokeToken(ctx context.Context, userID uuid.UUID) error {
	if err := s.redisClient.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// ValidateAPIKey returns the tier of a configured API key.
func (s *AuthService) ValidateAPIKey(apiKey string) (string, error) {
	if tier, exists := s.apiKeys[apiKey]; exists {
		return tier, nil
	}
	return "", fmt.Errorf("invalid API key")
}

func sessionKey(userID uuid.UUID) string {
	return fmt.Sprintf("session:%s", userID.String())
}
