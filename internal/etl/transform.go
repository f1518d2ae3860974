package etl

import (
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"mongoextract/internal/domain"
)

// ── Normalizer ─────────────────────────────────────────────
// Flattens a heterogeneous record set into a Table. Identifier types that
// flat formats cannot hold are rewritten to their canonical text; every
// other value passes through untouched.

// Normalize builds a Table from records. It returns (nil, false) for an
// empty record set: "no matches" is an outcome, not a zero-row table.
func Normalize(records domain.RecordSet) (*Table, bool) {
	if len(records) == 0 {
		return nil, false
	}

	columns, index := discoverColumns(records)

	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(columns))
		for _, f := range rec {
			row[index[f.Name]] = coerceIdentifier(f.Value)
		}
		rows[i] = row
	}
	return &Table{Columns: columns, Rows: rows}, true
}

// discoverColumns collects all unique keys in first-seen order.
func discoverColumns(records domain.RecordSet) ([]string, map[string]int) {
	index := make(map[string]int)
	var columns []string
	for _, rec := range records {
		for _, f := range rec {
			if _, ok := index[f.Name]; !ok {
				index[f.Name] = len(columns)
				columns = append(columns, f.Name)
			}
		}
	}
	return columns, index
}

// coerceIdentifier renders opaque identifier values as canonical strings.
func coerceIdentifier(v any) any {
	switch id := v.(type) {
	case bson.ObjectID:
		return id.Hex()
	case *bson.ObjectID:
		if id == nil {
			return nil
		}
		return id.Hex()
	case uuid.UUID:
		return id.String()
	case bson.Binary:
		if id.Subtype == bson.TypeBinaryUUID && len(id.Data) == 16 {
			if u, err := uuid.FromBytes(id.Data); err == nil {
				return u.String()
			}
		}
		return v
	default:
		return v
	}
}
