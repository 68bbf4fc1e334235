package db

import (
	"context"
	"database/sql/driver"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers the engine reacts to.
const (
	ErrNumDuplicateKey    = 1062
	ErrNumLockWaitTimeout = 1205
	ErrNumDeadlock        = 1213
)

func mysqlNumber(err error) (uint16, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number, true
	}
	return 0, false
}

// IsDuplicateKey matches a unique/primary key violation.
func IsDuplicateKey(err error) bool {
	n, ok := mysqlNumber(err)
	return ok && n == ErrNumDuplicateKey
}

// IsRetryable matches failures after which the whole unit can be retried:
// deadlocks, lock wait timeouts, dropped connections and expired deadlines.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if n, ok := mysqlNumber(err); ok {
		return n == ErrNumDeadlock || n == ErrNumLockWaitTimeout
	}
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
