package dbclient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"mongoextract/internal/domain"
)

// DefaultTimeout bounds connection establishment and the reachability check.
const DefaultTimeout = 5 * time.Second

// DefaultMaxRecords is the data-row capacity of a single XLSX sheet.
const DefaultMaxRecords = 1_048_575

// Options tune a single connection.
type Options struct {
	// Timeout bounds connect + ping. Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxRecords caps how many records Find may materialize. Zero or
	// negative disables the ceiling.
	MaxRecords int
	// Logger receives driver-level detail. Nil discards it.
	Logger *slog.Logger
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Connector abstracts a live, verified connection to an external database.
type Connector interface {
	// TestConnection verifies reachability with a round trip to the server.
	TestConnection(ctx context.Context) error

	// Find returns every record of database.collection matching filter,
	// fully materialized in memory.
	Find(ctx context.Context, database, collection string, filter bson.D) (domain.RecordSet, error)

	// Close releases the connection.
	Close() error
}

// ConnectFunc opens a Connector; Connect is the production implementation.
type ConnectFunc func(ctx context.Context, spec domain.ConnectionSpec, opts Options) (Connector, error)

// Connect opens a connection for spec and verifies it is reachable before
// returning, so timeouts and credential problems surface here rather than on
// the first query. Errors are classified *domain.Error values.
func Connect(ctx context.Context, spec domain.ConnectionSpec, opts Options) (Connector, error) {
	driver, err := spec.Driver()
	if err != nil {
		return nil, domain.NewError(domain.FailureUnclassified, "connect", err)
	}

	var c Connector
	switch driver {
	case domain.DatabaseDriverMongoDB:
		c, err = newMongoConnector(spec, opts)
	case domain.DatabaseDriverPostgres:
		c, err = newSQLConnector("postgres", spec.URI, postgresDialect, opts)
	case domain.DatabaseDriverMySQL:
		var dsn string
		if dsn, err = buildMySQLDSN(spec.URI); err == nil {
			c, err = newSQLConnector("mysql", dsn, mysqlDialect, opts)
		}
	case domain.DatabaseDriverSQLite:
		c, err = newSQLConnector("sqlite", buildSQLiteDSN(spec.URI, opts.timeout()), sqliteDialect, opts)
	default:
		err = fmt.Errorf("unsupported driver: %s", driver)
	}
	if err != nil {
		return nil, Classify("connect", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout())
	defer cancel()
	if err := c.TestConnection(ctx); err != nil {
		_ = c.Close()
		return nil, Classify("connect", err)
	}
	return c, nil
}

// ceilingError reports a result larger than the configured record ceiling.
func ceilingError(max int) error {
	return domain.NewError(domain.FailureUnclassified, "query",
		fmt.Errorf("result exceeds %d records; narrow the filter", max))
}
