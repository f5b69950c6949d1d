package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/PromptDesk/internal/domain"
	"github.com/Strob0t/PromptDesk/internal/domain/user"
	"github.com/Strob0t/PromptDesk/internal/port/database"
)

const userColumns = `id, tenant_id, email, first_name, last_name, role, is_active, last_login, created_at, updated_at`

func scanUser(row scannable) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.Active, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUserWithinCapacity locks the tenant row, counts its active users,
// asks admit whether one more fits, and inserts u, all in one transaction.
// Concurrent creations for the same tenant serialize on the row lock.
func (s *Store) CreateUserWithinCapacity(ctx context.Context, u *user.User, admit database.AdmitFunc) error {
	return s.inTx(ctx, "create user", func(tx pgx.Tx) error {
		t, err := scanTenant(tx.QueryRow(ctx,
			`SELECT `+tenantColumns+` FROM tenants WHERE id = $1 FOR UPDATE`, u.TenantID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) || errors.Is(mapPgError(err), domain.ErrNotFound) {
				return &domain.TenantNotFoundError{TenantID: u.TenantID}
			}
			return fmt.Errorf("lock tenant %s: %w", u.TenantID, err)
		}

		var active int
		if err := tx.QueryRow(ctx,
			`SELECT count(*) FROM users WHERE tenant_id = $1 AND is_active`, u.TenantID).Scan(&active); err != nil {
			return fmt.Errorf("count active users: %w", err)
		}

		if err := admit(&t, active); err != nil {
			return err
		}

		now := time.Now().UTC()
		u.CreatedAt = now
		u.UpdatedAt = now
		_, err = tx.Exec(ctx, `
			INSERT INTO users (id, tenant_id, email, first_name, last_name, role, is_active, last_login, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			u.ID, u.TenantID, u.Email, u.FirstName, u.LastName, u.Role, u.Active, u.LastLogin, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err, constraintUserEmail) {
				return &domain.DuplicateEmailError{Email: u.Email, TenantID: u.TenantID}
			}
			if isRetryable(err) {
				return err
			}
			return fmt.Errorf("insert user: %w", mapPgError(err))
		}
		return nil
	})
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, rowErr(err, "get user %s", id)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, tenantID, email string) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND lower(email) = lower($2)`, tenantID, email))
	if err != nil {
		return nil, rowErr(err, "get user by email %s", email)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, tenantID string) ([]user.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", mapPgError(err))
	}
	users, err := collect(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	return users, nil
}

func (s *Store) CountActiveUsers(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM users WHERE tenant_id = $1 AND is_active`, tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active users: %w", mapPgError(err))
	}
	return n, nil
}

func (s *Store) SetUserActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	return oneRow(tag, err, "set user active %s", id)
}

func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	return oneRow(tag, err, "touch last login %s", id)
}
