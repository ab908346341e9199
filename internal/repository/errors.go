// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without looking at driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when no row matches, including when the row
// exists but belongs to another business.  Handlers translate it into 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique constraint rejects a write.
// Handlers translate it into 409.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
