package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"mongoextract/internal/domain"
)

// dialect captures the syntax differences between the SQL engines.
type dialect struct {
	quoteIdent  func(name string) string
	placeholder func(n int) string
	// qualifies reports whether the database name prefixes the table.
	qualifies bool
}

func questionMark(int) string { return "?" }

// sqlConnector is the shared implementation for MySQL, Postgres, and SQLite.
// "collection" maps to a table, "database" to the schema/database qualifier.
type sqlConnector struct {
	driverName string
	db         *sql.DB
	dialect    dialect
	maxRecords int
	log        *slog.Logger
}

func newSQLConnector(driverName, dsn string, d dialect, opts Options) (*sqlConnector, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	// One run, one connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(10 * time.Minute)

	return &sqlConnector{
		driverName: driverName,
		db:         db,
		dialect:    d,
		maxRecords: opts.MaxRecords,
		log:        opts.logger().With("driver", driverName),
	}, nil
}

func (c *sqlConnector) TestConnection(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close releases the connection pool.
func (c *sqlConnector) Close() error {
	return c.db.Close()
}

func (c *sqlConnector) Find(ctx context.Context, database, collection string, filter bson.D) (domain.RecordSet, error) {
	query, args, err := c.buildSelect(database, collection, filter)
	if err != nil {
		return nil, domain.NewError(domain.FailureUnclassified, "query", err)
	}
	c.log.Debug("select", "query", query, "args", len(args))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Classify("query", fmt.Errorf("query: %w", err))
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, Classify("query", fmt.Errorf("columns: %w", err))
	}

	var records domain.RecordSet
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for j := range values {
			ptrs[j] = &values[j]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, Classify("query", fmt.Errorf("scan row: %w", err))
		}
		rec := make(domain.Record, len(cols))
		for j, v := range values {
			rec[j] = domain.Field{Name: cols[j], Value: formatValue(v)}
		}
		records = append(records, rec)
		if c.maxRecords > 0 && len(records) > c.maxRecords {
			return nil, ceilingError(c.maxRecords)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, Classify("query", fmt.Errorf("iterate: %w", err))
	}
	return records, nil
}

// buildSelect renders SELECT * FROM table WHERE <filter>.
func (c *sqlConnector) buildSelect(database, table string, filter bson.D) (string, []any, error) {
	if table == "" {
		return "", nil, fmt.Errorf("table name is required")
	}
	from := c.dialect.quoteIdent(table)
	if c.dialect.qualifies && database != "" {
		from = c.dialect.quoteIdent(database) + "." + from
	}

	w := whereBuilder{d: c.dialect}
	where, err := w.document(filter)
	if err != nil {
		return "", nil, err
	}

	query := "SELECT * FROM " + from
	if where != "" {
		query += " WHERE " + where
	}
	if c.maxRecords > 0 {
		query += fmt.Sprintf(" LIMIT %d", c.maxRecords+1)
	}
	return query, w.args, nil
}

// whereBuilder translates a query document into a parameterized WHERE clause.
// Supported: field equality, $eq $ne $gt $gte $lt $lte $in $nin, $and, $or.
type whereBuilder struct {
	d    dialect
	args []any
}

var comparisonOps = map[string]string{
	"$eq":  "=",
	"$ne":  "<>",
	"$gt":  ">",
	"$gte": ">=",
	"$lt":  "<",
	"$lte": "<=",
}

func (w *whereBuilder) bind(v any) string {
	w.args = append(w.args, sqlArg(v))
	return w.d.placeholder(len(w.args))
}

func (w *whereBuilder) document(doc bson.D) (string, error) {
	var clauses []string
	for _, elem := range doc {
		var (
			clause string
			err    error
		)
		switch elem.Key {
		case "$and", "$or":
			clause, err = w.logical(elem.Key, elem.Value)
		default:
			if strings.HasPrefix(elem.Key, "$") {
				return "", fmt.Errorf("unsupported filter operator %q for SQL sources", elem.Key)
			}
			clause, err = w.field(elem.Key, elem.Value)
		}
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	return strings.Join(clauses, " AND "), nil
}

func (w *whereBuilder) logical(op string, v any) (string, error) {
	arr, ok := v.(bson.A)
	if !ok || len(arr) == 0 {
		return "", fmt.Errorf("%s requires a non-empty array", op)
	}
	joiner := " AND "
	if op == "$or" {
		joiner = " OR "
	}
	parts := make([]string, 0, len(arr))
	for _, item := range arr {
		sub, ok := item.(bson.D)
		if !ok {
			return "", fmt.Errorf("%s entries must be documents", op)
		}
		clause, err := w.document(sub)
		if err != nil {
			return "", err
		}
		if clause == "" {
			clause = "1=1"
		}
		parts = append(parts, "("+clause+")")
	}
	return "(" + strings.Join(parts, joiner) + ")", nil
}

func (w *whereBuilder) field(name string, v any) (string, error) {
	col := w.d.quoteIdent(name)
	ops, ok := v.(bson.D)
	if !ok {
		return w.compare(col, "$eq", v)
	}
	if len(ops) == 0 || !strings.HasPrefix(ops[0].Key, "$") {
		return "", fmt.Errorf("field %q: embedded document equality is not supported for SQL sources", name)
	}
	clauses := make([]string, 0, len(ops))
	for _, op := range ops {
		clause, err := w.compare(col, op.Key, op.Value)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", name, err)
		}
		clauses = append(clauses, clause)
	}
	return strings.Join(clauses, " AND "), nil
}

func (w *whereBuilder) compare(col, op string, v any) (string, error) {
	switch op {
	case "$in", "$nin":
		arr, ok := v.(bson.A)
		if !ok {
			return "", fmt.Errorf("%s requires an array", op)
		}
		if len(arr) == 0 {
			if op == "$in" {
				return "1=0", nil
			}
			return "1=1", nil
		}
		marks := make([]string, len(arr))
		for i, item := range arr {
			marks[i] = w.bind(item)
		}
		kw := " IN ("
		if op == "$nin" {
			kw = " NOT IN ("
		}
		return col + kw + strings.Join(marks, ", ") + ")", nil
	}

	sqlOp, ok := comparisonOps[op]
	if !ok {
		return "", fmt.Errorf("unsupported filter operator %q for SQL sources", op)
	}
	if v == nil {
		switch op {
		case "$eq":
			return col + " IS NULL", nil
		case "$ne":
			return col + " IS NOT NULL", nil
		}
	}
	return col + " " + sqlOp + " " + w.bind(v), nil
}

// sqlArg converts BSON-typed filter values into driver-friendly arguments.
func sqlArg(v any) any {
	switch val := v.(type) {
	case bson.DateTime:
		return val.Time().UTC()
	case bson.ObjectID:
		return val.Hex()
	case bson.Decimal128:
		return val.String()
	case bson.Regex:
		return val.Pattern
	default:
		return v
	}
}

// formatValue normalizes raw driver values.
func formatValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	default:
		return val
	}
}
