package http_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Strob0t/PromptDesk/internal/domain"
	"github.com/Strob0t/PromptDesk/internal/domain/prompt"
	"github.com/Strob0t/PromptDesk/internal/domain/stats"
	"github.com/Strob0t/PromptDesk/internal/domain/tenant"
	"github.com/Strob0t/PromptDesk/internal/domain/user"
	"github.com/Strob0t/PromptDesk/internal/port/database"
)

var _ database.Store = (*mockStore)(nil)

// mockStore implements database.Store in memory for handler tests.
type mockStore struct {
	mu         sync.Mutex
	tenants    []tenant.Tenant
	users      []user.User
	records    []prompt.Record
	executions []prompt.Execution
}

func (m *mockStore) CreateTenant(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if strings.EqualFold(m.tenants[i].Subdomain, t.Subdomain) {
			return &domain.DuplicateSubdomainError{Subdomain: t.Subdomain}
		}
	}
	m.tenants = append(m.tenants, *t)
	return nil
}

func (m *mockStore) tenantIdx(id string) int {
	for i := range m.tenants {
		if m.tenants[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *mockStore) userIdx(id string) int {
	for i := range m.users {
		if m.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *mockStore) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.tenantIdx(id); i >= 0 {
		t := m.tenants[i]
		return &t, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetTenantBySubdomain(_ context.Context, sub string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tenants {
		if strings.EqualFold(t.Subdomain, sub) {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tenant.Tenant(nil), m.tenants...), nil
}

func (m *mockStore) SetTenantActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.tenantIdx(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	m.tenants[i].Active = active
	return nil
}

func (m *mockStore) SetTenantMaxUsers(_ context.Context, id string, maxUsers int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.tenantIdx(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	m.tenants[i].MaxUsers = maxUsers
	return nil
}

func (m *mockStore) CreateUserWithinCapacity(_ context.Context, u *user.User, admit database.AdmitFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.tenantIdx(u.TenantID)
	if i < 0 {
		return &domain.TenantNotFoundError{TenantID: u.TenantID}
	}
	active := 0
	for _, existing := range m.users {
		if existing.TenantID == u.TenantID && existing.Active {
			active++
		}
	}
	t := m.tenants[i]
	if err := admit(&t, active); err != nil {
		return err
	}
	for _, existing := range m.users {
		if existing.TenantID == u.TenantID && strings.EqualFold(existing.Email, u.Email) {
			return &domain.DuplicateEmailError{Email: u.Email, TenantID: u.TenantID}
		}
	}
	m.users = append(m.users, *u)
	return nil
}

func (m *mockStore) GetUser(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.userIdx(id); i >= 0 {
		u := m.users[i]
		return &u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetUserByEmail(_ context.Context, tenantID, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.TenantID == tenantID && strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListUsers(_ context.Context, tenantID string) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []user.User
	for _, u := range m.users {
		if u.TenantID == tenantID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockStore) CountActiveUsers(_ context.Context, tenantID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.users {
		if u.TenantID == tenantID && u.Active {
			n++
		}
	}
	return n, nil
}

func (m *mockStore) SetUserActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.userIdx(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	m.users[i].Active = active
	return nil
}

func (m *mockStore) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.userIdx(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	m.users[i].LastLogin = &at
	return nil
}

func (m *mockStore) CreateRecord(_ context.Context, r *prompt.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *r)
	return nil
}

func (m *mockStore) UpdateRecord(_ context.Context, r *prompt.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == r.ID && m.records[i].TenantID == r.TenantID {
			m.records[i] = *r
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) GetRecord(_ context.Context, tenantID, id string) (*prompt.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id && r.TenantID == tenantID {
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListRecords(_ context.Context, tenantID string, kind prompt.Kind) ([]prompt.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []prompt.Record
	for _, r := range m.records {
		if r.TenantID == tenantID && (kind == "" || r.Kind == kind) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) CreateExecution(_ context.Context, e *prompt.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions = append(m.executions, *e)
	return nil
}

func (m *mockStore) Stats(_ context.Context) (*stats.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &stats.Summary{Tenants: len(m.tenants), Users: len(m.users), Records: len(m.records), Executions: len(m.executions)}, nil
}
