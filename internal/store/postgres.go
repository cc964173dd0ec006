package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/temcen/cinerec/pkg/models"
)

// Querier is the subset of pgxpool.Pool used by PostgresStore. pgxmock pools
// satisfy it in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PostgresStore reads the corpus from the users, movies and reviews tables.
type PostgresStore struct {
	db Querier
}

func NewPostgresStore(db Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

const ratingColumns = `user_id, movie_id, rating::float8, created_at`

func (s *PostgresStore) RatingsByUser(ctx context.Context, userID uuid.UUID) ([]models.Rating, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+ratingColumns+` FROM reviews WHERE user_id = $1 ORDER BY movie_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("ratings by user query failed: %w", err)
	}
	return collectRatings(rows)
}

func (s *PostgresStore) ReviewsByMovie(ctx context.Context, movieID uuid.UUID) ([]models.Rating, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+ratingColumns+` FROM reviews WHERE movie_id = $1 ORDER BY user_id`, movieID)
	if err != nil {
		return nil, fmt.Errorf("reviews by movie query failed: %w", err)
	}
	return collectRatings(rows)
}

func (s *PostgresStore) MoviesMatching(ctx context.Context, filter models.MovieFilter) ([]models.Movie, error) {
	query, args := buildMovieQuery(filter)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("movies query failed: %w", err)
	}
	defer rows.Close()

	var movies []models.Movie
	for rows.Next() {
		var m models.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Genres, &m.Director, &m.ReleaseDate); err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("movies query failed: %w", err)
	}
	return movies, nil
}

func (s *PostgresStore) UserByID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var user models.UserProfile
	err := s.db.QueryRow(ctx,
		`SELECT id, name, preferred_genres FROM users WHERE id = $1`, userID,
	).Scan(&user.ID, &user.Name, &user.PreferredGenres)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user query failed: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("user ids query failed: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("user ids query failed: %w", err)
	}
	return ids, nil
}

// buildMovieQuery translates a MovieFilter into SQL. Genre matching is case
// insensitive, mirroring models.GenreKey for ASCII genre names.
func buildMovieQuery(filter models.MovieFilter) (string, []interface{}) {
	query := `SELECT id, title, genres, coalesce(director, ''), release_date FROM movies`

	var conditions []string
	var args []interface{}
	argIndex := 1

	if len(filter.IDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", argIndex))
		args = append(args, filter.IDs)
		argIndex++
	}

	if filter.ExcludeID != nil {
		conditions = append(conditions, fmt.Sprintf("id <> $%d", argIndex))
		args = append(args, *filter.ExcludeID)
		argIndex++
	}

	var either []string
	if genres := models.GenreKeys(filter.AnyGenres); len(genres) > 0 {
		either = append(either, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM unnest(genres) AS g WHERE lower(btrim(g)) = ANY($%d))", argIndex))
		args = append(args, genres)
		argIndex++
	}
	if director := strings.TrimSpace(filter.Director); director != "" {
		either = append(either, fmt.Sprintf("lower(btrim(director)) = lower($%d)", argIndex))
		args = append(args, director)
	}
	if len(either) > 0 {
		conditions = append(conditions, "("+strings.Join(either, " OR ")+")")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	return query, args
}

func collectRatings(rows pgx.Rows) ([]models.Rating, error) {
	defer rows.Close()

	var ratings []models.Rating
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(&r.UserID, &r.MovieID, &r.Score, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ratings query failed: %w", err)
	}
	return ratings, nil
}
