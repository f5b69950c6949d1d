// Package database defines the database store port (interface).
package database

import (
	"context"
	"time"

	"github.com/Strob0t/PromptDesk/internal/domain/prompt"
	"github.com/Strob0t/PromptDesk/internal/domain/stats"
	"github.com/Strob0t/PromptDesk/internal/domain/tenant"
	"github.com/Strob0t/PromptDesk/internal/domain/user"
)

// AdmitFunc decides whether a new user may join t, given the tenant's
// current active user count. The store calls it while holding the tenant
// lock, so the decision and the insert are one atomic unit.
type AdmitFunc func(t *tenant.Tenant, activeUsers int) error

// Store is the port interface for database operations.
type Store interface {
	// Tenants
	CreateTenant(ctx context.Context, t *tenant.Tenant) error
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error)
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	SetTenantActive(ctx context.Context, id string, active bool) error
	SetTenantMaxUsers(ctx context.Context, id string, maxUsers int) error

	// Users
	CreateUserWithinCapacity(ctx context.Context, u *user.User, admit AdmitFunc) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, tenantID, email string) (*user.User, error)
	ListUsers(ctx context.Context, tenantID string) ([]user.User, error)
	CountActiveUsers(ctx context.Context, tenantID string) (int, error)
	SetUserActive(ctx context.Context, id string, active bool) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error

	// Content records
	CreateRecord(ctx context.Context, r *prompt.Record) error
	UpdateRecord(ctx context.Context, r *prompt.Record) error
	GetRecord(ctx context.Context, tenantID, id string) (*prompt.Record, error)
	ListRecords(ctx context.Context, tenantID string, kind prompt.Kind) ([]prompt.Record, error)
	CreateExecution(ctx context.Context, e *prompt.Execution) error

	// Stats
	Stats(ctx context.Context) (*stats.Summary, error)
}
