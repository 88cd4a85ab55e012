package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// Transient error codes outside the always-retryable classes.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeLockNotAvailable     = "55P03"
)

// PostgreSQLErrorClassifier decides which connection and statement errors
// are worth retrying. Data and SQL errors never are; a merge that violates
// a constraint fails the same way on every attempt.
type PostgreSQLErrorClassifier struct{}

func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

// IsTransient reports whether err is temporary and worth another attempt.
func (c *PostgreSQLErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientPgCode(pgErr.Code)
	}

	return c.isNetworkError(err) || c.isConnectionError(err)
}

func isTransientPgCode(code string) bool {
	// Class 08 (connection exception), 53 (insufficient resources) and
	// 57 (operator intervention) are retryable wholesale.
	if strings.HasPrefix(code, "08") || strings.HasPrefix(code, "53") || strings.HasPrefix(code, "57") {
		return true
	}

	switch code {
	case pgCodeSerializationFailure, pgCodeDeadlockDetected, pgCodeLockNotAvailable:
		return true
	}
	return false
}

func (c *PostgreSQLErrorClassifier) isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Temporary() || opErr.Timeout() {
			return true
		}
		if opErr.Err != nil {
			for _, errno := range []syscall.Errno{
				syscall.ECONNREFUSED,
				syscall.ECONNRESET,
				syscall.ENETUNREACH,
				syscall.EHOSTUNREACH,
			} {
				if errors.Is(opErr.Err, errno) {
					return true
				}
			}
		}
	}

	return false
}

// transientMessagePatterns matches errors that arrive as plain strings after
// wrapping, where the typed cause is no longer reachable.
var transientMessagePatterns = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"connection failure",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"too many connections",
	"server closed the connection",
	"unexpected eof",
	"connection pool exhausted",
	"context deadline exceeded",
}

func (c *PostgreSQLErrorClassifier) isConnectionError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientMessagePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
