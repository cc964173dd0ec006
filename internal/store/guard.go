package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/temcen/cinerec/pkg/models"
)

// BreakerSettings configures the circuit breaker in front of a backend.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
	OnStateChange    func(name string, from, to gobreaker.State)
}

// Guard wraps a Reader with a circuit breaker so a failing backend is cut off
// quickly instead of stalling every ranking request until its timeout.
type Guard struct {
	next Reader
	cb   *gobreaker.CircuitBreaker[any]
}

func NewGuard(next Reader, settings BreakerSettings, logger *logrus.Logger) *Guard {
	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Storage circuit breaker changed state")
			if settings.OnStateChange != nil {
				settings.OnStateChange(name, from, to)
			}
		},
	})

	return &Guard{next: next, cb: cb}
}

// State returns the breaker state for health reporting.
func (g *Guard) State() gobreaker.State {
	return g.cb.State()
}

// isBreakerSuccess keeps lookups of unknown ids and caller cancellations from
// counting against the backend.
func isBreakerSuccess(err error) bool {
	return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
}

func guarded[T any](g *Guard, fn func() (T, error)) (T, error) {
	result, err := g.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func (g *Guard) RatingsByUser(ctx context.Context, userID uuid.UUID) ([]models.Rating, error) {
	return guarded(g, func() ([]models.Rating, error) {
		return g.next.RatingsByUser(ctx, userID)
	})
}

func (g *Guard) ReviewsByMovie(ctx context.Context, movieID uuid.UUID) ([]models.Rating, error) {
	return guarded(g, func() ([]models.Rating, error) {
		return g.next.ReviewsByMovie(ctx, movieID)
	})
}

func (g *Guard) MoviesMatching(ctx context.Context, filter models.MovieFilter) ([]models.Movie, error) {
	return guarded(g, func() ([]models.Movie, error) {
		return g.next.MoviesMatching(ctx, filter)
	})
}

func (g *Guard) UserByID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	return guarded(g, func() (*models.UserProfile, error) {
		return g.next.UserByID(ctx, userID)
	})
}

func (g *Guard) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	return guarded(g, func() ([]uuid.UUID, error) {
		return g.next.ListUserIDs(ctx)
	})
}
