package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/temcen/cinerec/internal/config"
	"github.com/temcen/cinerec/internal/store"
)

// Database holds the connections of one process. Only the backend selected by
// storage.driver is opened; Redis is opened by New for the API server.
type Database struct {
	PG     *pgxpool.Pool
	Neo4j  neo4j.DriverWithContext
	Mongo  *mongo.Client
	Redis  *redis.Client
	logger *logrus.Logger

	mongoDatabase string
	neo4jDatabase string
}

// New connects the storage backend and Redis.
func New(cfg *config.Config, logger *logrus.Logger) (*Database, error) {
	db, err := NewStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := db.initRedis(cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	return db, nil
}

// NewStorage connects only the storage backend.
func NewStorage(cfg *config.Config, logger *logrus.Logger) (*Database, error) {
	db := &Database{
		logger:        logger,
		mongoDatabase: cfg.Mongo.Database,
		neo4jDatabase: cfg.Neo4j.Database,
	}

	var err error
	switch cfg.Storage.Driver {
	case store.DriverPostgres:
		if err = db.initPostgreSQL(cfg); err != nil {
			err = fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
	case store.DriverNeo4j:
		if err = db.initNeo4j(cfg); err != nil {
			err = fmt.Errorf("failed to initialize Neo4j: %w", err)
		}
	case store.DriverMongo:
		if err = db.initMongo(cfg); err != nil {
			err = fmt.Errorf("failed to initialize MongoDB: %w", err)
		}
	case store.DriverMemory:
		logger.Warn("Using in-memory rating store")
	default:
		err = fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Backends returns the connections for store.Open.
func (db *Database) Backends(seedFile string) store.Backends {
	b := store.Backends{
		Neo4j:         db.Neo4j,
		Neo4jDatabase: db.neo4jDatabase,
		SeedFile:      seedFile,
	}
	if db.PG != nil {
		b.Postgres = db.PG
	}
	if db.Mongo != nil {
		b.Mongo = db.Mongo.Database(db.mongoDatabase)
	}
	return b
}

func (db *Database) initPostgreSQL(cfg *config.Config) error {
	if cfg.Database.AutoMigrate {
		if err := Migrate(cfg.Database.URL); err != nil {
			return err
		}
		db.logger.Info("PostgreSQL migrations applied")
	}

	config, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to parse PostgreSQL config: %w", err)
	}

	// Configure connection pool
	config.MaxConns = int32(cfg.Database.MaxConnections)
	config.MaxConnIdleTime = cfg.Database.MaxIdleTime
	config.MaxConnLifetime = cfg.Database.MaxLifetime
	config.ConnConfig.ConnectTimeout = cfg.Database.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return fmt.Errorf("failed to create PostgreSQL pool: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.PG = pool
	db.logger.Info("PostgreSQL connection established")
	return nil
}

func (db *Database) initNeo4j(cfg *config.Config) error {
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4j.URL,
		neo4j.BasicAuth(cfg.Neo4j.Username, cfg.Neo4j.Password, ""),
		func(config *neo4j.Config) {
			config.MaxConnectionPoolSize = cfg.Neo4j.PoolSize
			config.ConnectionAcquisitionTimeout = 30 * time.Second
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}

	db.Neo4j = driver
	db.logger.Info("Neo4j connection established")
	return nil
}

func (db *Database) initMongo(cfg *config.Config) error {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetServerAPIOptions(serverAPI).
		SetConnectTimeout(cfg.Mongo.ConnectTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db.Mongo = client
	db.logger.WithField("database", cfg.Mongo.Database).Info("MongoDB connection established")
	return nil
}

func (db *Database) initRedis(cfg *config.Config) error {
	db.Redis = redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.URL,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		PoolSize:     cfg.Redis.PoolSize,
		ReadTimeout:  cfg.Redis.Timeout,
		WriteTimeout: cfg.Redis.Timeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.Redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	db.logger.Info("Redis connection established")
	return nil
}

func (db *Database) Close() error {
	var errs []error

	// Close PostgreSQL
	if db.PG != nil {
		db.PG.Close()
		db.logger.Info("PostgreSQL connection closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close Neo4j
	if db.Neo4j != nil {
		if err := db.Neo4j.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Neo4j: %w", err))
		} else {
			db.logger.Info("Neo4j connection closed")
		}
	}

	// Close MongoDB
	if db.Mongo != nil {
		if err := db.Mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close MongoDB: %w", err))
		} else {
			db.logger.Info("MongoDB connection closed")
		}
	}

	// Close Redis
	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		} else {
			db.logger.Info("Redis connection closed")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing database connections: %w", errors.Join(errs...))
	}

	return nil
}
