package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/temcen/cinerec/pkg/models"
)

// cypherRunner executes a read query and returns its records.
type cypherRunner func(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error)

// Neo4jStore reads the corpus from a rating graph:
//
//	(:User {user_id, name, preferred_genres})-[:RATED {rating, created_at}]->(:Movie {movie_id, title, genres, director, release_date})
type Neo4jStore struct {
	run cypherRunner
}

func NewNeo4jStore(driver neo4j.DriverWithContext, database string) *Neo4jStore {
	return &Neo4jStore{
		run: func(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
			session := driver.NewSession(ctx, neo4j.SessionConfig{
				AccessMode:   neo4j.AccessModeRead,
				DatabaseName: database,
			})
			defer session.Close(ctx)

			result, err := session.Run(ctx, query, params)
			if err != nil {
				return nil, err
			}
			return result.Collect(ctx)
		},
	}
}

func (s *Neo4jStore) RatingsByUser(ctx context.Context, userID uuid.UUID) ([]models.Rating, error) {
	records, err := s.run(ctx, `
		MATCH (u:User {user_id: $userId})-[r:RATED]->(m:Movie)
		RETURN u.user_id AS user_id, m.movie_id AS movie_id, r.rating AS rating, r.created_at AS created_at
		ORDER BY movie_id`,
		map[string]any{"userId": userID.String()})
	if err != nil {
		return nil, fmt.Errorf("ratings by user query failed: %w", err)
	}
	return decodeRatings(records)
}

func (s *Neo4jStore) ReviewsByMovie(ctx context.Context, movieID uuid.UUID) ([]models.Rating, error) {
	records, err := s.run(ctx, `
		MATCH (u:User)-[r:RATED]->(m:Movie {movie_id: $movieId})
		RETURN u.user_id AS user_id, m.movie_id AS movie_id, r.rating AS rating, r.created_at AS created_at
		ORDER BY user_id`,
		map[string]any{"movieId": movieID.String()})
	if err != nil {
		return nil, fmt.Errorf("reviews by movie query failed: %w", err)
	}
	return decodeRatings(records)
}

func (s *Neo4jStore) MoviesMatching(ctx context.Context, filter models.MovieFilter) ([]models.Movie, error) {
	query, params := buildMovieCypher(filter)

	records, err := s.run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("movies query failed: %w", err)
	}

	movies := make([]models.Movie, 0, len(records))
	for _, record := range records {
		m, err := decodeMovie(record)
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, nil
}

func (s *Neo4jStore) UserByID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	records, err := s.run(ctx, `
		MATCH (u:User {user_id: $userId})
		RETURN u.user_id AS user_id, u.name AS name, u.preferred_genres AS preferred_genres
		LIMIT 1`,
		map[string]any{"userId": userID.String()})
	if err != nil {
		return nil, fmt.Errorf("user query failed: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}

	record := records[0]
	id, err := recordUUID(record, "user_id")
	if err != nil {
		return nil, err
	}
	name, _ := recordValue(record, "name").(string)
	return &models.UserProfile{
		ID:              id,
		Name:            name,
		PreferredGenres: recordStrings(record, "preferred_genres"),
	}, nil
}

func (s *Neo4jStore) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	records, err := s.run(ctx, `MATCH (u:User) RETURN u.user_id AS user_id ORDER BY user_id`, nil)
	if err != nil {
		return nil, fmt.Errorf("user ids query failed: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(records))
	for _, record := range records {
		id, err := recordUUID(record, "user_id")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func buildMovieCypher(filter models.MovieFilter) (string, map[string]any) {
	var conditions []string
	params := map[string]any{}

	if len(filter.IDs) > 0 {
		ids := make([]string, len(filter.IDs))
		for i, id := range filter.IDs {
			ids[i] = id.String()
		}
		conditions = append(conditions, "m.movie_id IN $ids")
		params["ids"] = ids
	}

	if filter.ExcludeID != nil {
		conditions = append(conditions, "m.movie_id <> $excludeId")
		params["excludeId"] = filter.ExcludeID.String()
	}

	var either []string
	if genres := models.GenreKeys(filter.AnyGenres); len(genres) > 0 {
		either = append(either, "ANY(g IN coalesce(m.genres, []) WHERE toLower(trim(g)) IN $genres)")
		params["genres"] = genres
	}
	if director := strings.TrimSpace(filter.Director); director != "" {
		either = append(either, "toLower(trim(m.director)) = toLower($director)")
		params["director"] = director
	}
	if len(either) > 0 {
		conditions = append(conditions, "("+strings.Join(either, " OR ")+")")
	}

	query := "MATCH (m:Movie)"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += `
		RETURN m.movie_id AS movie_id, m.title AS title, m.genres AS genres,
		       m.director AS director, m.release_date AS release_date
		ORDER BY movie_id`

	return query, params
}

func decodeRatings(records []*neo4j.Record) ([]models.Rating, error) {
	ratings := make([]models.Rating, 0, len(records))
	for _, record := range records {
		userID, err := recordUUID(record, "user_id")
		if err != nil {
			return nil, err
		}
		movieID, err := recordUUID(record, "movie_id")
		if err != nil {
			return nil, err
		}

		var score float64
		switch v := recordValue(record, "rating").(type) {
		case int64:
			score = float64(v)
		case float64:
			score = v
		default:
			return nil, fmt.Errorf("unexpected rating value %v (%T)", v, v)
		}

		ratings = append(ratings, models.Rating{
			UserID:    userID,
			MovieID:   movieID,
			Score:     score,
			CreatedAt: recordTime(record, "created_at"),
		})
	}
	return ratings, nil
}

func decodeMovie(record *neo4j.Record) (models.Movie, error) {
	id, err := recordUUID(record, "movie_id")
	if err != nil {
		return models.Movie{}, err
	}
	title, _ := recordValue(record, "title").(string)
	director, _ := recordValue(record, "director").(string)

	return models.Movie{
		ID:          id,
		Title:       title,
		Genres:      recordStrings(record, "genres"),
		Director:    director,
		ReleaseDate: recordTime(record, "release_date"),
	}, nil
}

func recordValue(record *neo4j.Record, key string) any {
	value, _ := record.Get(key)
	return value
}

func recordUUID(record *neo4j.Record, key string) (uuid.UUID, error) {
	raw, ok := recordValue(record, key).(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("record has no %s", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return id, nil
}

func recordStrings(record *neo4j.Record, key string) []string {
	list, _ := recordValue(record, key).([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func recordTime(record *neo4j.Record, key string) time.Time {
	switch v := recordValue(record, key).(type) {
	case time.Time:
		return v
	case neo4j.LocalDateTime:
		return v.Time()
	case neo4j.Date:
		return v.Time()
	case int64:
		return time.UnixMilli(v).UTC()
	default:
		return time.Time{}
	}
}
