package jugledger

import (
	"errors"
	"fmt"
)

// ErrStorageUnreadable wraps failures to open or parse the persisted ledger.
var ErrStorageUnreadable = errors.New("ledger storage unreadable")

// ValidationError reports a rejected field value in caller-supplied events.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ConflictError is returned by BulkReplaceTail when the ledger moved on since
// the caller read it by more rows than the edit covers.
type ConflictError struct {
	Expected  int
	Actual    int
	Tolerance int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("ledger changed since it was loaded: expected %d rows, found %d", e.Expected, e.Actual)
}
