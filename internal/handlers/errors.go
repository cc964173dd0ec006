package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cinerec/internal/recommend"
)

const (
	codeInvalidUserID        = "INVALID_USER_ID"
	codeInvalidMovieID       = "INVALID_MOVIE_ID"
	codeInvalidQuery         = "INVALID_QUERY"
	codeUserNotFound         = "USER_NOT_FOUND"
	codeMovieNotFound        = "MOVIE_NOT_FOUND"
	codeStorageUnavailable   = "STORAGE_UNAVAILABLE"
	codeRecommendationFailed = "RECOMMENDATION_FAILED"
)

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondRankingError maps an engine error onto the error envelope.
// notFoundCode names the entity the route looks up.
func respondRankingError(c *gin.Context, logger *logrus.Logger, err error, notFoundCode string) {
	switch {
	case errors.Is(err, recommend.ErrNotFound):
		message := "User not found"
		if notFoundCode == codeMovieNotFound {
			message = "Movie not found"
		}
		abortWithError(c, http.StatusNotFound, notFoundCode, message)
	case errors.Is(err, recommend.ErrCollaboratorFailure):
		abortWithError(c, http.StatusServiceUnavailable, codeStorageUnavailable, "Rating storage is unavailable, retry later")
	default:
		logger.WithError(err).WithField("path", c.FullPath()).Error("Unexpected ranking failure")
		abortWithError(c, http.StatusInternalServerError, codeRecommendationFailed, "Failed to compute recommendations")
	}
}

func parseIDParam(c *gin.Context, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		message := "Invalid user ID format"
		if code == codeInvalidMovieID {
			message = "Invalid movie ID format"
		}
		abortWithError(c, http.StatusBadRequest, code, message)
		return uuid.Nil, false
	}
	return id, true
}
