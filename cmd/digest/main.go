// Command digest publishes one recommendation digest per user and exits.
// It is meant to be scheduled weekly.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/temcen/cinerec/internal/app"
	"github.com/temcen/cinerec/internal/config"
	"github.com/temcen/cinerec/internal/database"
	"github.com/temcen/cinerec/internal/messaging"
	"github.com/temcen/cinerec/internal/services"
	"github.com/temcen/cinerec/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := app.NewLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Recommendation digest failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	metrics := services.NewMetrics(logger)
	ranking, err := services.NewRanking(cfg, logger, db, metrics)
	if err != nil {
		return err
	}

	validator, err := validation.NewDefaultSchemaValidator()
	if err != nil {
		return err
	}

	publisher := messaging.NewDigestPublisher(cfg, validator, logger)
	defer publisher.Close()

	digest := services.NewDigestService(ranking.Reader, ranking.Engine, publisher, metrics, cfg.Digest, logger)
	_, err = digest.Run(ctx)
	return err
}
