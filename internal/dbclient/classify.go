package dbclient

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"mongoextract/internal/domain"
)

// MySQL server error numbers for access and privilege denials.
var mysqlAuthErrors = map[uint16]bool{
	1044: true, // ER_DBACCESS_DENIED_ERROR
	1045: true, // ER_ACCESS_DENIED_ERROR
	1142: true, // ER_TABLEACCESS_DENIED_ERROR
	1143: true, // ER_COLUMNACCESS_DENIED_ERROR
	1227: true, // ER_SPECIFIC_ACCESS_DENIED_ERROR
}

// Message fragments of handshake-time authentication failures, which the
// Mongo driver reports wrapped in connection and server-selection errors.
var authMarkers = []string{
	"auth error",
	"authentication failed",
	"unauthorized",
	"not authorized",
}

// Classify maps a driver error onto the failure taxonomy. An error that is
// already classified is returned unchanged.
func Classify(op string, err error) *domain.Error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	switch {
	case isAuthError(err):
		return domain.NewError(domain.FailureAuthorization, op, err)
	case isTimeoutError(err):
		return domain.NewError(domain.FailureConnectionTimeout, op, err)
	default:
		return domain.NewError(domain.FailureUnclassified, op, err)
	}
}

// isAuthError reports a reachable server that rejected the operation.
func isAuthError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "28" || pqErr.Code == "42501"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return mysqlAuthErrors[myErr.Number]
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range authMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	// Any command the Mongo server answered with an error: bad
	// credentials, missing privileges, or an operation it refused.
	var serverErr mongo.ServerError
	return errors.As(err, &serverErr)
}

// isTimeoutError reports a server that could not be reached in time.
func isTimeoutError(err error) bool {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "server selection")
}
