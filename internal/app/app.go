package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cinerec/internal/config"
	"github.com/temcen/cinerec/internal/database"
	"github.com/temcen/cinerec/internal/handlers"
	"github.com/temcen/cinerec/internal/middleware"
	"github.com/temcen/cinerec/internal/services"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine
	stop     context.CancelFunc
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: NewLogger(cfg),
	}

	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	services, err := services.New(cfg, app.logger, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = services

	ctx, stop := context.WithCancel(context.Background())
	app.stop = stop
	services.Health.Start(ctx)

	app.handlers = handlers.New(app.logger, services)
	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Logger() *logrus.Logger {
	return a.logger
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")
	a.stop()

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}

	return nil
}

// NewLogger builds the process logger from the logging settings.
func NewLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))

	// Health check endpoints (no auth required)
	router.GET("/health", a.handlers.Health.Check)

	if a.config.Monitoring.Enabled {
		router.GET(a.config.Monitoring.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(a.services.Auth, a.logger))
	api.Use(middleware.RateLimit(a.services.RateLimit, a.logger))
	a.handlers.Recommendation.Register(api)

	a.router = router
}
