package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopRated_MinimumSample(t *testing.T) {
	c := newCorpus(t)

	lucky := c.movie("Lucky", "X", "Drama")
	c.reviewer(lucky, 5)
	c.reviewer(lucky, 5)

	solid := c.movie("Solid", "Y", "Drama")
	for _, score := range []float64{4, 4, 4, 4, 4, 4, 4, 4, 5, 5} {
		c.reviewer(solid, score)
	}

	fine := c.movie("Fine", "Z", "Drama")
	for _, score := range []float64{3, 4, 4, 4, 4} {
		c.reviewer(fine, score)
	}

	e := c.engine(Options{})

	ranked, err := e.TopRated(context.Background(), 5, 5)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{solid, fine}, movieIDs(ranked))
	assert.InDelta(t, 4.2, ranked[0].Stats.AverageRating, 1e-12)
	assert.Equal(t, 10, ranked[0].Stats.ReviewCount)
	for _, m := range ranked {
		assert.GreaterOrEqual(t, m.Stats.ReviewCount, 5)
	}

	t.Run("zero threshold admits everything", func(t *testing.T) {
		ranked, err := e.TopRated(context.Background(), 10, 0)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{lucky, solid, fine}, movieIDs(ranked))
	})

	t.Run("negative threshold uses the default", func(t *testing.T) {
		ranked, err := e.TopRated(context.Background(), 10, -1)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{solid, fine}, movieIDs(ranked))
	})

	t.Run("limit", func(t *testing.T) {
		ranked, err := e.TopRated(context.Background(), 1, 0)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{lucky}, movieIDs(ranked))
	})
}

func TestTopRated_TiesBrokenByID(t *testing.T) {
	c := newCorpus(t)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		id := c.movie("Tie", "X", "Drama")
		c.reviewer(id, 4)
		ids = append(ids, id)
	}

	ranked, err := c.engine(Options{}).TopRated(context.Background(), 10, 1)
	require.NoError(t, err)
	assert.Equal(t, sortedIDs(ids...), movieIDs(ranked))
}

func TestTopRated_BoundedConcurrency(t *testing.T) {
	c := newCorpus(t)
	for i := 0; i < 10; i++ {
		c.reviewer(c.movie("M", "X", "Drama"), float64(1+i%5))
	}

	reader := &peakReader{Reader: c.store, delay: 5 * time.Millisecond}
	e := New(reader, Options{MaxConcurrency: 2})

	ranked, err := e.TopRated(context.Background(), 20, 0)
	require.NoError(t, err)
	assert.Len(t, ranked, 10)

	assert.Equal(t, int64(10), reader.calls.Load())
	assert.LessOrEqual(t, reader.peak.Load(), int64(2))
	assert.GreaterOrEqual(t, reader.peak.Load(), int64(1))
}
