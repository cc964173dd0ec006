package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/temcen/cinerec/internal/config"
	"github.com/temcen/cinerec/internal/recommend"
	"github.com/temcen/cinerec/pkg/models"
)

// DigestReport summarises one digest run.
type DigestReport struct {
	Users     int `json:"users"`
	Published int `json:"published"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// DigestService publishes a personalized recommendation list for every user.
// Users without recommendations are skipped; a failure for one user does not
// stop the others.
type DigestService struct {
	users     UserLister
	engine    Recommender
	publisher DigestPublisher
	metrics   *Metrics
	config    config.DigestConfig
	logger    *logrus.Logger
	now       func() time.Time
}

func NewDigestService(users UserLister, engine Recommender, publisher DigestPublisher, metrics *Metrics, cfg config.DigestConfig, logger *logrus.Logger) *DigestService {
	return &DigestService{
		users:     users,
		engine:    engine,
		publisher: publisher,
		metrics:   metrics,
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes a single digest pass. It returns an error when the users could
// not be listed, the run was cancelled, or any digest failed.
func (s *DigestService) Run(ctx context.Context) (DigestReport, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	userIDs, err := s.users.ListUserIDs(ctx)
	if err != nil {
		return DigestReport{}, fmt.Errorf("failed to list users: %w", err)
	}

	var published, skipped, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.config.Concurrency, 1))
	for _, userID := range userIDs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			sent, err := s.digestFor(gctx, userID)
			switch {
			case err != nil:
				failed.Add(1)
				s.logger.WithError(err).WithField("user_id", userID).Error("Failed to publish recommendation digest")
			case sent:
				published.Add(1)
			default:
				skipped.Add(1)
			}
			return nil
		})
	}
	waitErr := g.Wait()

	report := DigestReport{
		Users:     len(userIDs),
		Published: int(published.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
	}

	s.logger.WithFields(logrus.Fields{
		"users":     report.Users,
		"published": report.Published,
		"skipped":   report.Skipped,
		"failed":    report.Failed,
	}).Info("Recommendation digest run finished")

	if waitErr != nil {
		return report, fmt.Errorf("digest run interrupted: %w", waitErr)
	}
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("digest run interrupted: %w", err)
	}
	if report.Failed > 0 {
		return report, fmt.Errorf("%d of %d digests failed", report.Failed, report.Users)
	}
	return report, nil
}

// digestFor reports whether a digest was published for the user.
func (s *DigestService) digestFor(ctx context.Context, userID uuid.UUID) (bool, error) {
	movies, err := s.engine.Recommend(ctx, userID, s.config.Limit)
	if errors.Is(err, recommend.ErrNotFound) {
		// removed since the listing
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(movies) == 0 {
		return false, nil
	}

	if err := s.publisher.PublishDigest(ctx, s.buildEvent(userID, movies)); err != nil {
		return false, err
	}
	s.metrics.DigestsPublished.Inc()
	return true, nil
}

func (s *DigestService) buildEvent(userID uuid.UUID, movies []models.RankedMovie) models.DigestEvent {
	event := models.DigestEvent{
		EventID:     uuid.New(),
		UserID:      userID,
		Movies:      make([]models.DigestMovie, 0, len(movies)),
		GeneratedAt: s.now().UTC(),
	}
	for _, m := range movies {
		genres := m.Genres
		if genres == nil {
			genres = []string{}
		}
		event.Movies = append(event.Movies, models.DigestMovie{
			MovieID:       m.ID,
			Title:         m.Title,
			Genres:        genres,
			AverageRating: m.Stats.AverageRating,
			Votes:         int(m.Score),
		})
	}
	return event
}
