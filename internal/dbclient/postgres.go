package dbclient

import (
	"strconv"

	"github.com/lib/pq"
)

// postgresDialect quotes with pq.QuoteIdentifier and numbers placeholders.
// The "database" input selects the schema.
var postgresDialect = dialect{
	quoteIdent:  pq.QuoteIdentifier,
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	qualifies:   true,
}
