package store

import (
	"errors"
	"fmt"
	"strings"

	"hours-ledger/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// postgres SQLSTATE codes
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"

	// entry ids are UUID columns, so a malformed id can name no row
	codeInvalidTextRepresentation = "22P02"
	classDataException            = "22"
)

// classify maps driver errors onto model sentinels; anything it cannot place
// is treated as the store being unavailable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{model.ErrNotFound, model.ErrConflict, model.ErrInvalidInput, model.ErrStoreUnavailable} {
		if errors.Is(err, known) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w: %s", op, model.ErrNotFound, pgErr.ConstraintName)
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w: %s", op, model.ErrConflict, pgErr.ConstraintName)
		case codeCheckViolation:
			return fmt.Errorf("%s: %w: %s", op, model.ErrInvalidInput, pgErr.ConstraintName)
		case codeInvalidTextRepresentation:
			return fmt.Errorf("%s: %w: %s", op, model.ErrNotFound, pgErr.Message)
		}
		if strings.HasPrefix(pgErr.Code, classDataException) {
			return fmt.Errorf("%s: %w: %s", op, model.ErrInvalidInput, pgErr.Message)
		}
	}

	// timeouts, refused connections and unknown driver failures
	return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
}
