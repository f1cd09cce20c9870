// internal/repository/postgres/errors.go
package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Finatrades/finatradesgold-sub015/internal/util"
)

// wrapDBError translates driver-level failures into the application error
// taxonomy before wrapping. Serialization failures and deadlocks surface as
// ErrConcurrencyConflict so callers know the whole operation is safe to retry;
// connection-class failures surface as ErrStorageUnavailable.
func wrapDBError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%s: %w: %v", op, util.ErrConcurrencyConflict, err)
		}
		if pqErr.Code.Class() == "08" { // connection exceptions
			return fmt.Errorf("%s: %w: %v", op, util.ErrStorageUnavailable, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
