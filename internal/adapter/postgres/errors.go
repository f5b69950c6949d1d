package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Strob0t/PromptDesk/internal/domain"
)

// Unique index names from the migrations.
const (
	constraintTenantSubdomain = "tenants_subdomain_key"
	constraintUserEmail       = "users_tenant_email_key"
)

// mapPgError maps PostgreSQL errors that have a domain meaning to domain
// sentinels. Anything else is returned unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return fmt.Errorf("unique constraint %s: %w", pgErr.ConstraintName, domain.ErrConflict)
	case pgerrcode.ForeignKeyViolation:
		return fmt.Errorf("%s: %w", pgErr.Detail, domain.ErrNotFound)
	case pgerrcode.InvalidTextRepresentation:
		// Malformed UUID in a lookup: no row can match.
		return fmt.Errorf("invalid identifier: %w", domain.ErrNotFound)
	case pgerrcode.CheckViolation:
		return domain.ValidationError("check constraint %s violated", pgErr.ConstraintName)
	}
	return err
}

// isUniqueViolation reports whether err violates the named unique index.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == constraint
}

// isRetryable reports whether a transaction failed for a transient reason
// and may succeed if run again from the start.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return true
	}
	return false
}
