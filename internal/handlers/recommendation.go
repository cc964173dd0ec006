package handlers

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cinerec/internal/middleware"
	"github.com/temcen/cinerec/internal/services"
	"github.com/temcen/cinerec/pkg/models"
)

type RecommendationHandler struct {
	service  services.RecommendationServiceInterface
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewRecommendationHandler(
	service services.RecommendationServiceInterface,
	validate *validator.Validate,
	logger *logrus.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{
		service:  service,
		validate: validate,
		logger:   logger,
	}
}

// Register mounts the recommendation routes on an authenticated group.
func (h *RecommendationHandler) Register(api *gin.RouterGroup) {
	recommendations := api.Group("/recommendations")
	{
		recommendations.GET("/personalized", h.Personalized)
		recommendations.GET("/users/:userId", h.ForUser)
		recommendations.GET("/similar/:movieId", h.Similar)
		recommendations.GET("/trending", h.Trending)
		recommendations.GET("/top-rated", h.TopRated)
	}

	users := api.Group("/users")
	{
		users.GET("/:userId/neighbors", h.Neighbors)
		users.GET("/:userId/similarity/:otherId", h.Similarity)
	}
}

// Personalized recommends movies for the authenticated user.
func (h *RecommendationHandler) Personalized(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, codeInvalidUserID,
			"No user associated with the request; use a user token or send X-User-ID")
		return
	}
	h.personalized(c, userID)
}

// ForUser recommends movies for the user named in the path.
func (h *RecommendationHandler) ForUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "userId", codeInvalidUserID)
	if !ok {
		return
	}
	h.personalized(c, userID)
}

func (h *RecommendationHandler) personalized(c *gin.Context, userID uuid.UUID) {
	var query models.PersonalizedQuery
	if !h.bindQuery(c, &query) {
		return
	}

	movies, err := h.service.Personalized(c.Request.Context(), userID, query.Limit)
	if err != nil {
		respondRankingError(c, h.logger, err, codeUserNotFound)
		return
	}
	respondList(c, movies)
}

func (h *RecommendationHandler) Similar(c *gin.Context) {
	movieID, ok := parseIDParam(c, "movieId", codeInvalidMovieID)
	if !ok {
		return
	}

	var query models.SimilarMoviesQuery
	if !h.bindQuery(c, &query) {
		return
	}

	movies, err := h.service.SimilarMovies(c.Request.Context(), movieID, query.Limit)
	if err != nil {
		respondRankingError(c, h.logger, err, codeMovieNotFound)
		return
	}
	respondList(c, movies)
}

func (h *RecommendationHandler) Trending(c *gin.Context) {
	var query models.TrendingQuery
	if !h.bindQuery(c, &query) {
		return
	}

	movies, err := h.service.Trending(c.Request.Context(), query.Days, query.Limit)
	if err != nil {
		respondRankingError(c, h.logger, err, codeMovieNotFound)
		return
	}
	respondList(c, movies)
}

func (h *RecommendationHandler) TopRated(c *gin.Context) {
	var query models.TopRatedQuery
	if !h.bindQuery(c, &query) {
		return
	}

	minReviews := -1
	if query.MinReviews != nil {
		minReviews = *query.MinReviews
	}

	movies, err := h.service.TopRated(c.Request.Context(), query.Limit, minReviews)
	if err != nil {
		respondRankingError(c, h.logger, err, codeMovieNotFound)
		return
	}
	respondList(c, movies)
}

func (h *RecommendationHandler) Neighbors(c *gin.Context) {
	userID, ok := parseIDParam(c, "userId", codeInvalidUserID)
	if !ok {
		return
	}

	var query models.NeighborsQuery
	if !h.bindQuery(c, &query) {
		return
	}

	neighbors, err := h.service.Neighbors(c.Request.Context(), userID, query.K)
	if err != nil {
		respondRankingError(c, h.logger, err, codeUserNotFound)
		return
	}
	if neighbors == nil {
		neighbors = []models.Neighbor{}
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Status: "success",
		Count:  len(neighbors),
		Data:   neighbors,
	})
}

func (h *RecommendationHandler) Similarity(c *gin.Context) {
	userID, ok := parseIDParam(c, "userId", codeInvalidUserID)
	if !ok {
		return
	}
	otherID, ok := parseIDParam(c, "otherId", codeInvalidUserID)
	if !ok {
		return
	}

	result, err := h.service.Similarity(c.Request.Context(), userID, otherID)
	if err != nil {
		respondRankingError(c, h.logger, err, codeUserNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   result,
	})
}

func (h *RecommendationHandler) bindQuery(c *gin.Context, query interface{}) bool {
	if err := c.ShouldBindQuery(query); err != nil {
		abortWithError(c, http.StatusBadRequest, codeInvalidQuery, "Malformed query parameters")
		return false
	}
	if err := h.validate.Struct(query); err != nil {
		abortWithError(c, http.StatusBadRequest, codeInvalidQuery, validationMessage(err))
		return false
	}
	return true
}

// NewQueryValidator reports violations by their query parameter name.
func NewQueryValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "Invalid query parameters"
	}
	fe := verrs[0]
	return "Query parameter " + fe.Field() + " failed the '" + fe.Tag() + "' constraint"
}

func respondList(c *gin.Context, movies []models.RankedMovie) {
	if movies == nil {
		movies = []models.RankedMovie{}
	}
	c.JSON(http.StatusOK, models.ListResponse{
		Status: "success",
		Count:  len(movies),
		Data:   movies,
	})
}
