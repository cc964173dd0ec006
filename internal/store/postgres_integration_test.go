//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/temcen/cinerec/internal/database"
	"github.com/temcen/cinerec/internal/store"
	"github.com/temcen/cinerec/pkg/models"
)

func TestPostgresStore_Integration(t *testing.T) {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("cinerec_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "Should start PostgreSQL container")
	defer container.Terminate(ctx)

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.Migrate(connStr))
	// A second run is a no-op.
	require.NoError(t, database.Migrate(connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	alice, bob := uuid.New(), uuid.New()
	heat, alien := uuid.New(), uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err = pool.Exec(ctx, `INSERT INTO users (id, name, preferred_genres) VALUES ($1, 'alice', $2), ($3, 'bob', '{}')`,
		alice, []string{"Crime"}, bob)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO movies (id, title, genres, director, release_date) VALUES
		($1, 'Heat', '{Crime,Thriller}', 'Michael Mann', '1995-12-15'),
		($2, 'Alien', '{Sci-Fi,Horror}', 'Ridley Scott', '1979-05-25')`, heat, alien)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO reviews (id, user_id, movie_id, rating, created_at) VALUES
		($1, $2, $3, 5, $4), ($5, $6, $3, 3, $4)`,
		uuid.New(), alice, heat, now, uuid.New(), bob)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `INSERT INTO reviews (id, user_id, movie_id, rating) VALUES ($1, $2, $3, 4)`,
		uuid.New(), alice, heat)
	assert.Error(t, err, "one review per user and movie")

	s := store.NewPostgresStore(pool)

	ratings, err := s.RatingsByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, 5.0, ratings[0].Score)
	assert.True(t, now.Equal(ratings[0].CreatedAt))

	reviews, err := s.ReviewsByMovie(ctx, heat)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)

	user, err := s.UserByID(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"Crime"}, user.PreferredGenres)

	_, err = s.UserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)

	movies, err := s.MoviesMatching(ctx, models.MovieFilter{AnyGenres: []string{"thriller"}, Director: "ridley scott"})
	require.NoError(t, err)
	assert.Len(t, movies, 2)

	movies, err = s.MoviesMatching(ctx, models.MovieFilter{AnyGenres: []string{"CRIME"}, ExcludeID: &heat})
	require.NoError(t, err)
	assert.Empty(t, movies)

	ids, err := s.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, ids)
}
