package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/PromptDesk/internal/domain"
	"github.com/Strob0t/PromptDesk/internal/domain/tenant"
)

const tenantColumns = `id, name, subdomain, max_users, is_active, created_at, updated_at`

func scanTenant(row scannable) (tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Subdomain, &t.MaxUsers, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, subdomain, max_users, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Name, t.Subdomain, t.MaxUsers, t.Active, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, constraintTenantSubdomain) {
			return &domain.DuplicateSubdomainError{Subdomain: t.Subdomain}
		}
		return fmt.Errorf("create tenant: %w", mapPgError(err))
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil {
		return nil, rowErr(err, "get tenant %s", id)
	}
	return &t, nil
}

func (s *Store) GetTenantBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE lower(subdomain) = lower($1)`, subdomain))
	if err != nil {
		return nil, rowErr(err, "get tenant by subdomain %s", subdomain)
	}
	return &t, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	tenants, err := collect(rows, scanTenant)
	if err != nil {
		return nil, fmt.Errorf("scan tenants: %w", err)
	}
	return tenants, nil
}

func (s *Store) SetTenantActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	return oneRow(tag, err, "set tenant active %s", id)
}

func (s *Store) SetTenantMaxUsers(ctx context.Context, id string, maxUsers int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET max_users = $2, updated_at = now() WHERE id = $1`, id, maxUsers)
	return oneRow(tag, err, "set tenant max users %s", id)
}
