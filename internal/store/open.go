package store

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Backends carries the connections a driver may need. Only the one matching
// the selected driver has to be set.
type Backends struct {
	Postgres      Querier
	Neo4j         neo4j.DriverWithContext
	Neo4jDatabase string
	Mongo         *mongo.Database
	SeedFile      string
}

// Open returns the Reader for driver.
func Open(driver string, b Backends) (Reader, error) {
	switch driver {
	case DriverPostgres:
		if b.Postgres == nil {
			return nil, missingBackend(driver)
		}
		return NewPostgresStore(b.Postgres), nil
	case DriverNeo4j:
		if b.Neo4j == nil {
			return nil, missingBackend(driver)
		}
		return NewNeo4jStore(b.Neo4j, b.Neo4jDatabase), nil
	case DriverMongo:
		if b.Mongo == nil {
			return nil, missingBackend(driver)
		}
		return NewMongoStore(b.Mongo), nil
	case DriverMemory:
		if b.SeedFile == "" {
			return NewMemoryStore(), nil
		}
		return LoadFixture(b.SeedFile)
	default:
		return nil, unknownDriver(driver)
	}
}
