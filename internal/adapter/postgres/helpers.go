package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Strob0t/PromptDesk/internal/domain"
)

// scannable is satisfied by pgx.Row and pgx.CollectableRow.
type scannable interface {
	Scan(dest ...any) error
}

// rowErr annotates a single-row query error. No rows becomes
// domain.ErrNotFound; anything else goes through mapPgError.
func rowErr(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, mapPgError(err))
}

// oneRow checks that an UPDATE touched its target row.
func oneRow(tag pgconn.CommandTag, err error, format string, args ...any) error {
	switch {
	case err != nil:
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), mapPgError(err))
	case tag.RowsAffected() == 0:
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrNotFound)
	}
	return nil
}

// collect scans all rows with scan. The result is never nil, so empty
// lists encode as [].
func collect[T any](rows pgx.Rows, scan func(scannable) (T, error)) ([]T, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		return scan(row)
	})
}
