package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/temcen/cinerec/internal/services"
)

type staticHealth string

func (s staticHealth) CheckHealth(context.Context) *services.HealthStatus {
	return &services.HealthStatus{Status: string(s), Services: map[string]string{}}
}

func TestHealthHandler_Check(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	tests := []struct {
		status string
		want   int
	}{
		{"healthy", http.StatusOK},
		{"degraded", http.StatusOK},
		{"unhealthy", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			router := gin.New()
			router.GET("/health", NewHealthHandler(logger, staticHealth(tt.status)).Check)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), `"status":"`+tt.status+`"`)
		})
	}
}
