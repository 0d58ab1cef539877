package policy

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PersistenceError reports a failed batch commit during grouping or
// upload. The failing batch is rolled back in full; batches committed
// before it stand, so a re-run resumes from the remainder.
type PersistenceError struct {
	Batch int
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting batch %d: %v", e.Batch, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IntegrityError reports a constraint violation. The enclosing
// transaction is rolled back and the message is safe to show to users.
type IntegrityError struct {
	Constraint string
	Err        error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation on %s: %v", e.Constraint, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// wrapPgError maps unique and foreign key violations to IntegrityError
// and passes everything else through.
func wrapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503": // unique_violation, foreign_key_violation
			return &IntegrityError{Constraint: pgErr.ConstraintName, Err: err}
		}
	}
	return err
}
