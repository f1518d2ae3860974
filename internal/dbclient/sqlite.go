package dbclient

import (
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	quoteIdent:  func(name string) string { return `"` + strings.ReplaceAll(name, `"`, `""`) + `"` },
	placeholder: questionMark,
}

// buildSQLiteDSN turns sqlite://path or file:path into a modernc DSN with a
// busy timeout matching the connection timeout.
func buildSQLiteDSN(uri string, timeout time.Duration) string {
	path := strings.TrimPrefix(uri, "sqlite://")
	if strings.HasPrefix(path, "file:") || path == ":memory:" {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("file:%s%s_pragma=busy_timeout(%d)", path, sep, timeout.Milliseconds())
}
