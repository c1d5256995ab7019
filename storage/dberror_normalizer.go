//go:build !windows

package storage

import (
	"github.com/go-sql-driver/mysql"
)

// normalizeDBError maps MySQL driver error numbers to the repository sentinel
// errors, such as duplicate key to ErrDuplicateEntry. Non-MySQL errors pass
// through untouched so the sqlite3 paths keep their own normalization.
func normalizeDBError(driverErr error, mappedErrors map[uint16]error) (err error) {
	err = driverErr
	if mysqlErr, ok := driverErr.(*mysql.MySQLError); ok {
		err = mysqlErr
		if mappedErr, ok := mappedErrors[mysqlErr.Number]; ok {
			err = mappedErr
		}
	}
	return err
}
