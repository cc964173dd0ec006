package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/temcen/cinerec/pkg/models"
)

const (
	usersCollection   = "users"
	moviesCollection  = "movies"
	reviewsCollection = "reviews"
)

// Documents keep identifiers as canonical UUID strings.
type userDocument struct {
	ID              string   `bson:"_id"`
	Name            string   `bson:"name"`
	PreferredGenres []string `bson:"preferred_genres"`
}

type movieDocument struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Genres      []string  `bson:"genres"`
	Director    string    `bson:"director"`
	ReleaseDate time.Time `bson:"release_date"`
}

type reviewDocument struct {
	UserID    string    `bson:"user_id"`
	MovieID   string    `bson:"movie_id"`
	Rating    float64   `bson:"rating"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoStore reads the corpus from the users, movies and reviews collections.
type MongoStore struct {
	users   *mongo.Collection
	movies  *mongo.Collection
	reviews *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		users:   db.Collection(usersCollection),
		movies:  db.Collection(moviesCollection),
		reviews: db.Collection(reviewsCollection),
	}
}

func (s *MongoStore) RatingsByUser(ctx context.Context, userID uuid.UUID) ([]models.Rating, error) {
	return s.findReviews(ctx, bson.D{{Key: "user_id", Value: userID.String()}}, "movie_id")
}

func (s *MongoStore) ReviewsByMovie(ctx context.Context, movieID uuid.UUID) ([]models.Rating, error) {
	return s.findReviews(ctx, bson.D{{Key: "movie_id", Value: movieID.String()}}, "user_id")
}

func (s *MongoStore) findReviews(ctx context.Context, filter bson.D, sortKey string) ([]models.Rating, error) {
	opts := options.Find().SetSort(bson.D{{Key: sortKey, Value: 1}})

	cursor, err := s.reviews.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("finding reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []reviewDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding reviews: %w", err)
	}

	ratings := make([]models.Rating, 0, len(docs))
	for _, doc := range docs {
		r, err := doc.toRating()
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, r)
	}
	return ratings, nil
}

func (s *MongoStore) MoviesMatching(ctx context.Context, filter models.MovieFilter) ([]models.Movie, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.movies.Find(ctx, movieFilterDocument(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("finding movies: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []movieDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding movies: %w", err)
	}

	movies := make([]models.Movie, 0, len(docs))
	for _, doc := range docs {
		m, err := doc.toMovie()
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, nil
}

func (s *MongoStore) UserByID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var doc userDocument
	err := s.users.FindOne(ctx, bson.D{{Key: "_id", Value: userID.String()}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}

	return &models.UserProfile{
		ID:              userID,
		Name:            doc.Name,
		PreferredGenres: doc.PreferredGenres,
	}, nil
}

func (s *MongoStore) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 1}}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.users.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("finding users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding users: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(docs))
	for _, doc := range docs {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", doc.ID, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// movieFilterDocument translates a MovieFilter into a find filter. Genre and
// director names match case-insensitively and ignore surrounding spaces in
// the stored value.
func movieFilterDocument(filter models.MovieFilter) bson.D {
	doc := bson.D{}

	idCond := bson.D{}
	if len(filter.IDs) > 0 {
		ids := make([]string, len(filter.IDs))
		for i, id := range filter.IDs {
			ids[i] = id.String()
		}
		idCond = append(idCond, bson.E{Key: "$in", Value: ids})
	}
	if filter.ExcludeID != nil {
		idCond = append(idCond, bson.E{Key: "$ne", Value: filter.ExcludeID.String()})
	}
	if len(idCond) > 0 {
		doc = append(doc, bson.E{Key: "_id", Value: idCond})
	}

	var either bson.A
	if genres := models.GenreKeys(filter.AnyGenres); len(genres) > 0 {
		patterns := make(bson.A, len(genres))
		for i, g := range genres {
			patterns[i] = paddedName(g)
		}
		either = append(either, bson.D{{Key: "genres", Value: bson.D{{Key: "$in", Value: patterns}}}})
	}
	if director := strings.TrimSpace(filter.Director); director != "" {
		either = append(either, bson.D{{Key: "director", Value: paddedName(director)}})
	}
	switch len(either) {
	case 0:
	case 1:
		doc = append(doc, either[0].(bson.D)...)
	default:
		doc = append(doc, bson.E{Key: "$or", Value: either})
	}

	return doc
}

func paddedName(name string) bson.Regex {
	return bson.Regex{Pattern: `^\s*` + regexp.QuoteMeta(name) + `\s*$`, Options: "i"}
}

func (d reviewDocument) toRating() (models.Rating, error) {
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return models.Rating{}, fmt.Errorf("invalid review user_id %q: %w", d.UserID, err)
	}
	movieID, err := uuid.Parse(d.MovieID)
	if err != nil {
		return models.Rating{}, fmt.Errorf("invalid review movie_id %q: %w", d.MovieID, err)
	}
	return models.Rating{
		UserID:    userID,
		MovieID:   movieID,
		Score:     d.Rating,
		CreatedAt: d.CreatedAt,
	}, nil
}

func (d movieDocument) toMovie() (models.Movie, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Movie{}, fmt.Errorf("invalid movie id %q: %w", d.ID, err)
	}
	return models.Movie{
		ID:          id,
		Title:       d.Title,
		Genres:      d.Genres,
		Director:    d.Director,
		ReleaseDate: d.ReleaseDate,
	}, nil
}
