package recommend

import (
	"context"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/temcen/cinerec/internal/store"
	"github.com/temcen/cinerec/pkg/models"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

// corpus builds a rating corpus in a memory store.
type corpus struct {
	t     *testing.T
	store *store.MemoryStore
}

func newCorpus(t *testing.T) *corpus {
	t.Helper()
	return &corpus{t: t, store: store.NewMemoryStore()}
}

func (c *corpus) user(name string, genres ...string) uuid.UUID {
	id := uuid.New()
	c.store.PutUser(models.UserProfile{ID: id, Name: name, PreferredGenres: genres})
	return id
}

func (c *corpus) movie(title, director string, genres ...string) uuid.UUID {
	id := uuid.New()
	c.store.PutMovie(models.Movie{ID: id, Title: title, Director: director, Genres: genres})
	return id
}

func (c *corpus) rate(userID, movieID uuid.UUID, score float64) {
	c.rateAt(userID, movieID, score, testNow.Add(-30*24*time.Hour))
}

func (c *corpus) rateAt(userID, movieID uuid.UUID, score float64, at time.Time) {
	c.t.Helper()
	require.NoError(c.t, c.store.PutRating(models.Rating{
		UserID:    userID,
		MovieID:   movieID,
		Score:     score,
		CreatedAt: at,
	}))
}

// reviewer adds a user who only exists to review movieID.
func (c *corpus) reviewer(movieID uuid.UUID, score float64) {
	c.rate(c.user("reviewer"), movieID, score)
}

func (c *corpus) engine(opts Options) *Engine {
	opts.Now = func() time.Time { return testNow }
	return New(c.store, opts)
}

func movieIDs(ranked []models.RankedMovie) []uuid.UUID {
	ids := make([]uuid.UUID, len(ranked))
	for i, m := range ranked {
		ids[i] = m.ID
	}
	return ids
}

func sortedIDs(ids ...uuid.UUID) []uuid.UUID {
	out := append([]uuid.UUID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return idLess(out[i], out[j]) })
	return out
}

// failingReader fails the named operation and delegates everything else.
type failingReader struct {
	store.Reader
	op  string
	err error
}

func (f *failingReader) RatingsByUser(ctx context.Context, id uuid.UUID) ([]models.Rating, error) {
	if f.op == "ratings" {
		return nil, f.err
	}
	return f.Reader.RatingsByUser(ctx, id)
}

func (f *failingReader) ReviewsByMovie(ctx context.Context, id uuid.UUID) ([]models.Rating, error) {
	if f.op == "reviews" {
		return nil, f.err
	}
	return f.Reader.ReviewsByMovie(ctx, id)
}

func (f *failingReader) MoviesMatching(ctx context.Context, filter models.MovieFilter) ([]models.Movie, error) {
	if f.op == "movies" {
		return nil, f.err
	}
	return f.Reader.MoviesMatching(ctx, filter)
}

func (f *failingReader) UserByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	if f.op == "user" {
		return nil, f.err
	}
	return f.Reader.UserByID(ctx, id)
}

// blockingReader never answers rating reads before the context ends.
type blockingReader struct {
	store.Reader
}

func (b blockingReader) RatingsByUser(ctx context.Context, id uuid.UUID) ([]models.Rating, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// peakReader records the most rating and review reads in flight at once.
type peakReader struct {
	store.Reader
	delay    time.Duration
	inFlight atomic.Int64
	peak     atomic.Int64
	calls    atomic.Int64
}

func (p *peakReader) enter() func() {
	p.calls.Add(1)
	n := p.inFlight.Add(1)
	for {
		old := p.peak.Load()
		if n <= old || p.peak.CompareAndSwap(old, n) {
			break
		}
	}
	time.Sleep(p.delay)
	return func() { p.inFlight.Add(-1) }
}

func (p *peakReader) RatingsByUser(ctx context.Context, id uuid.UUID) ([]models.Rating, error) {
	defer p.enter()()
	return p.Reader.RatingsByUser(ctx, id)
}

func (p *peakReader) ReviewsByMovie(ctx context.Context, id uuid.UUID) ([]models.Rating, error) {
	defer p.enter()()
	return p.Reader.ReviewsByMovie(ctx, id)
}
