package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	cfotel "github.com/Strob0t/PromptDesk/internal/adapter/otel"
	"github.com/Strob0t/PromptDesk/internal/domain"
	"github.com/Strob0t/PromptDesk/internal/domain/stats"
	"github.com/Strob0t/PromptDesk/internal/domain/tenant"
	"github.com/Strob0t/PromptDesk/internal/domain/user"
	"github.com/Strob0t/PromptDesk/internal/port/cache"
	"github.com/Strob0t/PromptDesk/internal/port/database"
	"github.com/Strob0t/PromptDesk/internal/port/messagequeue"
)

// resolveTimeout bounds a shared subdomain lookup, which no longer follows
// any single request's deadline.
const resolveTimeout = 5 * time.Second

// DirectoryService owns tenant and user lifecycle. It enforces tenant
// capacity and answers authorization questions for the request layer.
type DirectoryService struct {
	store    database.Store
	cache    cache.Cache
	cacheTTL time.Duration
	events   *EventPublisher
	metrics  *cfotel.Metrics
	resolve  singleflight.Group
	now      func() time.Time
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(store database.Store) *DirectoryService {
	return &DirectoryService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetCache enables caching of subdomain to tenant ID lookups.
func (s *DirectoryService) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	s.cacheTTL = ttl
}

// SetEvents enables lifecycle event publishing.
func (s *DirectoryService) SetEvents(p *EventPublisher) { s.events = p }

// SetMetrics enables metric recording.
func (s *DirectoryService) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

// --- Tenants ---

// CreateTenant validates req and creates an active tenant. Subdomains are
// unique across tenants, compared case-insensitively.
func (s *DirectoryService) CreateTenant(ctx context.Context, req tenant.CreateRequest) (t *tenant.Tenant, err error) {
	ctx, span := cfotel.StartDirectorySpan(ctx, "create_tenant", "")
	defer func() { cfotel.EndSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return nil, domain.ValidationError("%s", err)
	}

	t = &tenant.Tenant{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Subdomain: req.Subdomain,
		MaxUsers:  req.MaxUsers,
		Active:    true,
	}
	if err := s.store.CreateTenant(ctx, t); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TenantsCreated.Add(ctx, 1)
	}
	s.events.tenantChanged(ctx, messagequeue.SubjectTenantCreated, t.ID, t.Subdomain, t.Active, "")
	slog.InfoContext(ctx, "tenant created", "tenant_id", t.ID, "subdomain", t.Subdomain, "max_users", t.MaxUsers)
	return t, nil
}

// GetTenant returns a tenant by ID.
func (s *DirectoryService) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.TenantNotFoundError{TenantID: id}
		}
		return nil, err
	}
	return t, nil
}

// ListTenants returns all tenants.
func (s *DirectoryService) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	return s.store.ListTenants(ctx)
}

// SetTenantActive activates or deactivates a tenant. Only admins may do so.
// Member users keep their own active flags; a deactivated tenant's users
// are refused by CanAuthenticate instead.
func (s *DirectoryService) SetTenantActive(ctx context.Context, actor *user.User, tenantID string, active bool) (err error) {
	ctx, span := cfotel.StartDirectorySpan(ctx, "set_tenant_active", tenantID)
	defer func() { cfotel.EndSpan(span, err) }()

	if err := s.authorize(ctx, actor, user.PermManageTenants); err != nil {
		return err
	}

	t, err := s.GetTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := s.store.SetTenantActive(ctx, tenantID, active); err != nil {
		return err
	}

	s.recordStateChange(ctx, "tenant", active)
	subject := messagequeue.SubjectTenantDeactivated
	if active {
		subject = messagequeue.SubjectTenantActivated
	}
	s.events.tenantChanged(ctx, subject, t.ID, t.Subdomain, active, actor.ID)
	slog.InfoContext(ctx, "tenant active changed", "tenant_id", tenantID, "active", active, "actor_id", actor.ID)
	return nil
}

// UpdateTenantCapacity changes max_users. Lowering it below the current
// active count is allowed; the limit only applies to future creations.
func (s *DirectoryService) UpdateTenantCapacity(ctx context.Context, actor *user.User, tenantID string, maxUsers int) (*tenant.Tenant, error) {
	if err := s.authorize(ctx, actor, user.PermManageTenants); err != nil {
		return nil, err
	}
	if maxUsers <= 0 {
		return nil, domain.ValidationError("max_users must be a positive integer")
	}
	if _, err := s.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	if err := s.store.SetTenantMaxUsers(ctx, tenantID, maxUsers); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "tenant capacity changed", "tenant_id", tenantID, "max_users", maxUsers, "actor_id", actor.ID)
	return s.GetTenant(ctx, tenantID)
}

// ResolveTenant maps a subdomain to its tenant. The subdomain to ID mapping
// never changes and is cached; the tenant row itself is always read fresh
// so the active flag is current.
func (s *DirectoryService) ResolveTenant(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	sub := tenant.NormalizeSubdomain(subdomain)
	if sub == "" {
		return nil, domain.ValidationError("subdomain is required")
	}
	key := cache.Key("tenant", "subdomain", sub)

	if s.cache != nil {
		if id, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			return s.GetTenant(ctx, string(id))
		} else if err != nil {
			slog.WarnContext(ctx, "tenant cache get failed", "key", key, "error", err)
		}
	}

	// The shared lookup outlives any one caller's cancellation; each caller
	// stops waiting on its own ctx.
	ch := s.resolve.DoChan(sub, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resolveTimeout)
		defer cancel()
		return s.store.GetTenantBySubdomain(lookupCtx, sub)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		if errors.Is(res.Err, domain.ErrNotFound) {
			return nil, &domain.TenantNotFoundError{Subdomain: sub}
		}
		return nil, res.Err
	}
	t := res.Val.(*tenant.Tenant)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, []byte(t.ID), s.cacheTTL); err != nil {
			slog.WarnContext(ctx, "tenant cache set failed", "key", key, "error", err)
		}
	}
	// Callers sharing a singleflight result must not share the pointer.
	cp := *t
	return &cp, nil
}

// --- Users ---

// admit is the capacity policy. The store calls it with the tenant row
// locked and the tenant's current active user count.
func (s *DirectoryService) admit(t *tenant.Tenant, activeUsers int) error {
	if !t.Active {
		return &domain.TenantInactiveError{TenantID: t.ID}
	}
	if activeUsers >= t.MaxUsers {
		return &domain.CapacityError{TenantID: t.ID, Current: activeUsers, Max: t.MaxUsers}
	}
	return nil
}

// CreateUser registers an active user in a tenant. It fails with
// TenantNotFound, TenantInactive, CapacityExceeded or DuplicateEmail. The
// capacity check and the insert are one atomic unit.
func (s *DirectoryService) CreateUser(ctx context.Context, req user.CreateRequest) (u *user.User, err error) {
	ctx, span := cfotel.StartDirectorySpan(ctx, "create_user", req.TenantID)
	defer func() { cfotel.EndSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return nil, domain.ValidationError("%s", err)
	}

	u = &user.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		TenantID:  req.TenantID,
		Active:    true,
	}
	if err := s.store.CreateUserWithinCapacity(ctx, u, s.admit); err != nil {
		if errors.Is(err, domain.ErrCapacityExceeded) && s.metrics != nil {
			s.metrics.CapacityRejections.Add(ctx, 1)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.UsersCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("role", string(u.Role))))
	}
	s.events.userChanged(ctx, messagequeue.SubjectUserCreated, u.ID, u.TenantID, string(u.Role), true, "")
	slog.InfoContext(ctx, "user created", "user_id", u.ID, "tenant_id", u.TenantID, "role", u.Role)
	return u, nil
}

// GetUser returns a user by ID.
func (s *DirectoryService) GetUser(ctx context.Context, id string) (*user.User, error) {
	return s.store.GetUser(ctx, id)
}

// ListUsers returns all users of a tenant, active or not.
func (s *DirectoryService) ListUsers(ctx context.Context, tenantID string) ([]user.User, error) {
	if _, err := s.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx, tenantID)
}

// SetUserActive activates or deactivates a user. Only admins may do so, and
// an admin may deactivate themself. History authored by the user is kept.
func (s *DirectoryService) SetUserActive(ctx context.Context, actor *user.User, userID string, active bool) (err error) {
	ctx, span := cfotel.StartDirectorySpan(ctx, "set_user_active", "")
	defer func() { cfotel.EndSpan(span, err) }()

	if err := s.authorize(ctx, actor, user.PermManageUsers); err != nil {
		return err
	}

	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.store.SetUserActive(ctx, userID, active); err != nil {
		return err
	}

	s.recordStateChange(ctx, "user", active)
	subject := messagequeue.SubjectUserDeactivated
	if active {
		subject = messagequeue.SubjectUserActivated
	}
	s.events.userChanged(ctx, subject, u.ID, u.TenantID, string(u.Role), active, actor.ID)
	slog.InfoContext(ctx, "user active changed", "user_id", userID, "active", active, "actor_id", actor.ID)
	return nil
}

// CanAuthenticate loads a user and checks that both the user and their
// tenant are active. The tenant flag is read at call time, never cached.
func (s *DirectoryService) CanAuthenticate(ctx context.Context, userID string) (*user.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, &domain.UserInactiveError{UserID: u.ID}
	}
	t, err := s.GetTenant(ctx, u.TenantID)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, &domain.TenantInactiveError{TenantID: t.ID}
	}
	return u, nil
}

// RecordLogin stamps last_login for a user allowed to authenticate.
func (s *DirectoryService) RecordLogin(ctx context.Context, userID string) (*user.User, error) {
	u, err := s.CanAuthenticate(ctx, userID)
	if err != nil {
		return nil, err
	}
	at := s.now()
	if err := s.store.TouchLastLogin(ctx, userID, at); err != nil {
		return nil, err
	}
	u.LastLogin = &at
	return u, nil
}

// Stats returns resource counts across all tenants. Admin only.
func (s *DirectoryService) Stats(ctx context.Context, actor *user.User) (*stats.Summary, error) {
	if err := s.authorize(ctx, actor, user.PermViewStats); err != nil {
		return nil, err
	}
	return s.store.Stats(ctx)
}

func (s *DirectoryService) authorize(ctx context.Context, actor *user.User, perm user.Permission) error {
	err := user.Authorize(actor, perm)
	if err != nil && s.metrics != nil {
		s.metrics.AuthzDenied.Add(ctx, 1, metric.WithAttributes(attribute.String("permission", string(perm))))
	}
	return err
}

func (s *DirectoryService) recordStateChange(ctx context.Context, entity string, active bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.StateChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.Bool("active", active),
	))
}
