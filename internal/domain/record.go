package domain

// Field is a single key/value pair of a record, in the order the data
// source produced it.
type Field struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Record is one document (or row) returned by a data source.
// Values are dynamically typed: string, number, bool, nil, nested documents,
// arrays, or driver-specific types such as an ObjectID.
type Record []Field

// Get returns the value stored under name and whether it was present.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// RecordSet is the full, materialized result of a query.
type RecordSet []Record
