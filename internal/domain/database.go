package domain

import (
	"fmt"
	"strings"
)

// DatabaseDriver represents the type of database engine behind a connection URI.
type DatabaseDriver string

const (
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverMongoDB  DatabaseDriver = "mongodb"
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
)

// ConnectionSpec identifies the data a single export run reads.
// It is supplied fresh for every run and never persisted.
type ConnectionSpec struct {
	URI        string `json:"uri"`
	Database   string `json:"database"`
	Collection string `json:"collection"`
}

// Driver infers the database engine from the URI scheme.
func (c ConnectionSpec) Driver() (DatabaseDriver, error) {
	uri := strings.TrimSpace(c.URI)
	switch {
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return DatabaseDriverMongoDB, nil
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return DatabaseDriverPostgres, nil
	case strings.HasPrefix(uri, "mysql://"):
		return DatabaseDriverMySQL, nil
	case strings.HasPrefix(uri, "sqlite://"), strings.HasPrefix(uri, "file:"):
		return DatabaseDriverSQLite, nil
	case uri == "":
		return "", fmt.Errorf("connection URI is empty")
	default:
		return "", fmt.Errorf("unsupported connection URI scheme: %q", redactURI(uri))
	}
}

// Redacted returns the URI with any password replaced by "***", for logging.
func (c ConnectionSpec) Redacted() string {
	return redactURI(c.URI)
}

func redactURI(uri string) string {
	schemeEnd := strings.Index(uri, "://")
	if schemeEnd == -1 {
		return uri
	}
	rest := uri[schemeEnd+3:]
	at := strings.LastIndex(rest, "@")
	if at == -1 {
		return uri
	}
	// Only the authority part can carry credentials.
	if slash := strings.Index(rest, "/"); slash != -1 && slash < at {
		return uri
	}
	userinfo := rest[:at]
	colon := strings.Index(userinfo, ":")
	if colon == -1 {
		return uri
	}
	return uri[:schemeEnd+3] + userinfo[:colon] + ":***" + rest[at:]
}
