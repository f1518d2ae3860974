package etl

// ── Table ──────────────────────────────────────────────────
// Rectangular intermediate between raw records and an export file.
// Columns are the union of record keys in first-seen order; every row has
// one cell per column, nil where the record lacked the key.

// Table is the normalized, column-aligned form of a record set.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the cells of the named column, or nil if it does not exist.
func (t *Table) Column(name string) []any {
	idx := t.ColumnIndex(name)
	if idx == -1 {
		return nil
	}
	cells := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		cells[i] = row[idx]
	}
	return cells
}
