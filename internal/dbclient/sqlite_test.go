package dbclient_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mongoextract/internal/dbclient"
	"mongoextract/internal/domain"
	"mongoextract/internal/filter"
)

func seedSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE orders (id INTEGER PRIMARY KEY, status TEXT, qty INTEGER, note TEXT)`)
	require.NoError(t, err)
	for _, row := range []struct {
		status string
		qty    int
	}{{"ACTIVE", 1}, {"ACTIVE", 5}, {"ACTIVE", 9}, {"CLOSED", 2}, {"CLOSED", 3}} {
		_, err = db.Exec(`INSERT INTO orders (status, qty) VALUES (?, ?)`, row.status, row.qty)
		require.NoError(t, err)
	}
	return path
}

func TestSQLite_Find(t *testing.T) {
	path := seedSQLite(t)
	ctx := context.Background()

	c, err := dbclient.Connect(ctx, domain.ConnectionSpec{URI: "sqlite://" + path}, dbclient.Options{})
	require.NoError(t, err)
	defer c.Close()

	records, err := c.Find(ctx, "", "orders", filter.MustParse(`{"status":"ACTIVE"}`).D())
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	names := make([]string, len(first))
	for i, f := range first {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"id", "status", "qty", "note"}, names)
	qty, ok := first.Get("qty")
	require.True(t, ok)
	assert.EqualValues(t, 1, qty)
	note, ok := first.Get("note")
	assert.True(t, ok)
	assert.Nil(t, note)

	records, err = c.Find(ctx, "", "orders", filter.MustParse(`{"qty":{"$gte":3,"$lt":9}}`).D())
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = c.Find(ctx, "", "orders", filter.MustParse(`{"status":"NONE_MATCH"}`).D())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLite_RecordCeiling(t *testing.T) {
	path := seedSQLite(t)
	ctx := context.Background()

	c, err := dbclient.Connect(ctx, domain.ConnectionSpec{URI: "sqlite://" + path}, dbclient.Options{MaxRecords: 2})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Find(ctx, "", "orders", filter.MustParse(`{}`).D())
	require.Error(t, err)
	assert.Equal(t, domain.FailureUnclassified, domain.KindOf(err))
	assert.Contains(t, err.Error(), "exceeds 2 records")

	records, err := c.Find(ctx, "", "orders", filter.MustParse(`{"status":"CLOSED"}`).D())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSQLite_Errors(t *testing.T) {
	path := seedSQLite(t)
	ctx := context.Background()

	c, err := dbclient.Connect(ctx, domain.ConnectionSpec{URI: "sqlite://" + path}, dbclient.Options{})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Find(ctx, "", "missing", filter.MustParse(`{}`).D())
	require.Error(t, err)
	assert.Equal(t, domain.FailureUnclassified, domain.KindOf(err))

	_, err = c.Find(ctx, "", "orders", filter.MustParse(`{"status":{"$exists":true}}`).D())
	require.Error(t, err)
	assert.Equal(t, domain.FailureUnclassified, domain.KindOf(err))
}

func TestSQLite_CloseReleasesConnection(t *testing.T) {
	path := seedSQLite(t)
	ctx := context.Background()

	c, err := dbclient.Connect(ctx, domain.ConnectionSpec{URI: "sqlite://" + path}, dbclient.Options{})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = c.Find(ctx, "", "orders", filter.MustParse(`{}`).D())
	require.Error(t, err)
	assert.ErrorContains(t, err, "sql: database is closed")
}
