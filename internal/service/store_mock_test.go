package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Strob0t/PromptDesk/internal/domain"
	"github.com/Strob0t/PromptDesk/internal/domain/prompt"
	"github.com/Strob0t/PromptDesk/internal/domain/stats"
	"github.com/Strob0t/PromptDesk/internal/domain/tenant"
	"github.com/Strob0t/PromptDesk/internal/domain/user"
	"github.com/Strob0t/PromptDesk/internal/port/database"
	"github.com/Strob0t/PromptDesk/internal/port/messagequeue"
)

// Ensure mockStore implements database.Store at compile time.
var _ database.Store = (*mockStore)(nil)

// mockStore is an in-memory database.Store. A single mutex plays the role
// of the tenant row lock, so CreateUserWithinCapacity is atomic here too.
type mockStore struct {
	mu         sync.Mutex
	tenants    map[string]tenant.Tenant
	users      map[string]user.User
	records    map[string]prompt.Record
	executions []prompt.Execution

	subdomainLookups int

	// Error hooks: set these to inject failures.
	getUserErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		tenants: make(map[string]tenant.Tenant),
		users:   make(map[string]user.User),
		records: make(map[string]prompt.Record),
	}
}

func (m *mockStore) CreateTenant(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if strings.EqualFold(m.tenants[i].Subdomain, t.Subdomain) {
			return &domain.DuplicateSubdomainError{Subdomain: t.Subdomain}
		}
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	m.tenants[t.ID] = *t
	return nil
}

func (m *mockStore) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (m *mockStore) GetTenantBySubdomain(_ context.Context, subdomain string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subdomainLookups++
	for _, t := range m.tenants {
		if strings.EqualFold(t.Subdomain, subdomain) {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]tenant.Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockStore) SetTenantActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Active = active
	m.tenants[id] = t
	return nil
}

func (m *mockStore) SetTenantMaxUsers(_ context.Context, id string, maxUsers int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.MaxUsers = maxUsers
	m.tenants[id] = t
	return nil
}

func (m *mockStore) CreateUserWithinCapacity(_ context.Context, u *user.User, admit database.AdmitFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[u.TenantID]
	if !ok {
		return &domain.TenantNotFoundError{TenantID: u.TenantID}
	}
	if err := admit(&t, m.countActiveLocked(u.TenantID)); err != nil {
		return err
	}
	for _, existing := range m.users {
		if existing.TenantID == u.TenantID && strings.EqualFold(existing.Email, u.Email) {
			return &domain.DuplicateEmailError{Email: u.Email, TenantID: u.TenantID}
		}
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = *u
	return nil
}

func (m *mockStore) GetUser(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getUserErr != nil {
		return nil, m.getUserErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
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
	return m.countActiveLocked(tenantID), nil
}

func (m *mockStore) countActiveLocked(tenantID string) int {
	n := 0
	for _, u := range m.users {
		if u.TenantID == tenantID && u.Active {
			n++
		}
	}
	return n
}

func (m *mockStore) SetUserActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Active = active
	m.users[id] = u
	return nil
}

func (m *mockStore) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.LastLogin = &at
	m.users[id] = u
	return nil
}

func (m *mockStore) CreateRecord(_ context.Context, r *prompt.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	m.records[r.ID] = *r
	return nil
}

func (m *mockStore) UpdateRecord(_ context.Context, r *prompt.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.records[r.ID]
	if !ok || existing.TenantID != r.TenantID {
		return domain.ErrNotFound
	}
	r.UpdatedAt = time.Now().UTC()
	m.records[r.ID] = *r
	return nil
}

func (m *mockStore) GetRecord(_ context.Context, tenantID, id string) (*prompt.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return &r, nil
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
	e.CreatedAt = time.Now().UTC()
	m.executions = append(m.executions, *e)
	return nil
}

func (m *mockStore) Stats(_ context.Context) (*stats.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &stats.Summary{Tenants: len(m.tenants), Users: len(m.users), Records: len(m.records), Executions: len(m.executions)}
	for _, t := range m.tenants {
		if t.Active {
			s.ActiveTenants++
		}
	}
	for _, u := range m.users {
		if u.Active {
			s.ActiveUsers++
		}
	}
	return s, nil
}

var _ messagequeue.Queue = (*mockQueue)(nil)

// mockQueue records published messages and subscriptions.
type mockQueue struct {
	mu        sync.Mutex
	published []publishedMsg
	err       error
	subErr    error
	handlers  map[string]messagequeue.Handler
	stopped   int
}

type publishedMsg struct {
	subject string
	data    []byte
}

func (q *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, publishedMsg{subject: subject, data: data})
	return nil
}

func (q *mockQueue) Subscribe(_ context.Context, subject string, h messagequeue.Handler) (func(), error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.subErr != nil {
		return nil, q.subErr
	}
	if q.handlers == nil {
		q.handlers = map[string]messagequeue.Handler{}
	}
	q.handlers[subject] = h
	return func() {
		q.mu.Lock()
		q.stopped++
		q.mu.Unlock()
	}, nil
}

// deliver hands data to the handler whose filter matches subject. Only the
// trailing ">" wildcard is understood.
func (q *mockQueue) deliver(ctx context.Context, subject string, data []byte) error {
	q.mu.Lock()
	var h messagequeue.Handler
	for filter, fn := range q.handlers {
		if filter == subject || (strings.HasSuffix(filter, ">") && strings.HasPrefix(subject, strings.TrimSuffix(filter, ">"))) {
			h = fn
		}
	}
	q.mu.Unlock()
	if h == nil {
		return fmt.Errorf("no subscriber for %s", subject)
	}
	return h(ctx, subject, data)
}

func (q *mockQueue) Close() error      { return nil }
func (q *mockQueue) IsConnected() bool { return true }

func (q *mockQueue) subjects() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.published))
	for i, m := range q.published {
		out[i] = m.subject
	}
	return out
}
