package utils

import (
	"errors"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrIntegrationNotConfigured is returned when a sync request arrives for a
// store without a connected integration. The only error surfaced to callers
// before any sync stage runs.
var ErrIntegrationNotConfigured = errors.New("integration is not configured")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}

// IsDuplicateKeyError reports whether err is a unique-constraint violation.
// Concurrent reconciliation runs are not serialized, so a Create can lose a
// race against another run inserting the same (store_id, external_id) row.
func IsDuplicateKeyError(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
