package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/temcen/cinerec/internal/config"
)

// CORS allows browser clients to read the rankings and the rate limit headers.
func CORS(cfg *config.Config) gin.HandlerFunc {
	allowAll := len(cfg.Security.CORS.AllowedOrigins) == 0
	for _, origin := range cfg.Security.CORS.AllowedOrigins {
		if origin == "*" {
			allowAll = true
		}
	}

	corsConfig := cors.Config{
		AllowMethods:  cfg.Security.CORS.AllowedMethods,
		AllowHeaders:  cfg.Security.CORS.AllowedHeaders,
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if allowAll {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.Security.CORS.AllowedOrigins
		corsConfig.AllowCredentials = true
	}

	return cors.New(corsConfig)
}
