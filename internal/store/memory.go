package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/temcen/cinerec/pkg/models"
)

// MemoryStore keeps the corpus in process. It backs the "memory" driver used
// for local development and is the fixture store in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]models.UserProfile
	movies  map[uuid.UUID]models.Movie
	ratings map[uuid.UUID]map[uuid.UUID]models.Rating // user -> movie -> rating
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[uuid.UUID]models.UserProfile),
		movies:  make(map[uuid.UUID]models.Movie),
		ratings: make(map[uuid.UUID]map[uuid.UUID]models.Rating),
	}
}

// Fixture is the on-disk seed format of the memory store.
type Fixture struct {
	Users   []models.UserProfile `json:"users"`
	Movies  []models.Movie       `json:"movies"`
	Ratings []models.Rating      `json:"ratings"`
}

// LoadFixture reads a JSON fixture file into a new MemoryStore.
func LoadFixture(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var fixture Fixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}

	s := NewMemoryStore()
	for _, u := range fixture.Users {
		s.PutUser(u)
	}
	for _, m := range fixture.Movies {
		s.PutMovie(m)
	}
	for _, r := range fixture.Ratings {
		if err := s.PutRating(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *MemoryStore) PutUser(user models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func (s *MemoryStore) PutMovie(movie models.Movie) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movies[movie.ID] = movie
}

// PutRating stores a rating, replacing any earlier rating of the same movie
// by the same user.
func (s *MemoryStore) PutRating(rating models.Rating) error {
	if rating.Score < 1 || rating.Score > 5 {
		return fmt.Errorf("rating %.1f out of range [1,5]", rating.Score)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	byMovie, ok := s.ratings[rating.UserID]
	if !ok {
		byMovie = make(map[uuid.UUID]models.Rating)
		s.ratings[rating.UserID] = byMovie
	}
	byMovie[rating.MovieID] = rating
	return nil
}

func (s *MemoryStore) RatingsByUser(ctx context.Context, userID uuid.UUID) ([]models.Rating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Rating, 0, len(s.ratings[userID]))
	for _, r := range s.ratings[userID] {
		out = append(out, r)
	}
	sortRatings(out)
	return out, nil
}

func (s *MemoryStore) ReviewsByMovie(ctx context.Context, movieID uuid.UUID) ([]models.Rating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Rating
	for _, byMovie := range s.ratings {
		if r, ok := byMovie[movieID]; ok {
			out = append(out, r)
		}
	}
	sortRatings(out)
	return out, nil
}

func (s *MemoryStore) MoviesMatching(ctx context.Context, filter models.MovieFilter) ([]models.Movie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Movie
	for _, m := range s.movies {
		if matches(filter, m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemoryStore) UserByID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids, nil
}

func sortRatings(ratings []models.Rating) {
	sort.Slice(ratings, func(i, j int) bool {
		if ratings[i].MovieID != ratings[j].MovieID {
			return ratings[i].MovieID.String() < ratings[j].MovieID.String()
		}
		return ratings[i].UserID.String() < ratings[j].UserID.String()
	})
}
