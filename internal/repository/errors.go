// Package repository defines error helpers shared across the pipeline
// repositories. Sentinel values let higher layers such as the
// orchestrator distinguish failure scenarios without string matching.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a summary or transaction lookup matches
// no row. Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// mysqlDuplicateEntry is the server error number MySQL raises when an
// insert violates a unique key.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a unique-key violation. The
// idempotency ledger treats this as "race lost", not as a failure.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
