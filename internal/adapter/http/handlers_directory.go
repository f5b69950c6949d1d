package http

import (
	"context"
	"net/http"

	"github.com/Strob0t/PromptDesk/internal/domain/tenant"
	"github.com/Strob0t/PromptDesk/internal/domain/user"
)

const (
	tenantNotFound = "tenant not found"
	userNotFound   = "user not found"
)

type activeRequest struct {
	Active *bool `json:"active"`
}

type capacityRequest struct {
	MaxUsers int `json:"max_users"`
}

// CreateTenant handles POST /api/v1/tenants.
func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	respondBody(w, r, http.StatusCreated, tenantNotFound, func(ctx context.Context, _ *user.User, req tenant.CreateRequest) (*tenant.Tenant, error) {
		return h.Directory.CreateTenant(ctx, req)
	})
}

// ListTenants handles GET /api/v1/tenants.
func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	respondList(w, r, tenantNotFound, func(ctx context.Context, _ *user.User) ([]tenant.Tenant, error) {
		return h.Directory.ListTenants(ctx)
	})
}

// GetTenant handles GET /api/v1/tenants/{id}.
func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	respond(w, r, http.StatusOK, tenantNotFound, func(ctx context.Context, _ *user.User) (*tenant.Tenant, error) {
		return h.Directory.GetTenant(ctx, id)
	})
}

// SetTenantActive handles PUT /api/v1/tenants/{id}/active and returns the
// updated tenant.
func (h *Handlers) SetTenantActive(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	respondBody(w, r, http.StatusOK, tenantNotFound, func(ctx context.Context, actor *user.User, req activeRequest) (*tenant.Tenant, error) {
		if req.Active == nil {
			return nil, errActiveRequired
		}
		if err := h.Directory.SetTenantActive(ctx, actor, id, *req.Active); err != nil {
			return nil, err
		}
		return h.Directory.GetTenant(ctx, id)
	})
}

// UpdateTenantCapacity handles PUT /api/v1/tenants/{id}/capacity.
func (h *Handlers) UpdateTenantCapacity(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	respondBody(w, r, http.StatusOK, tenantNotFound, func(ctx context.Context, actor *user.User, req capacityRequest) (*tenant.Tenant, error) {
		return h.Directory.UpdateTenantCapacity(ctx, actor, id, req.MaxUsers)
	})
}

// CreateUser handles POST /api/v1/tenants/{id}/users. The tenant comes from
// the path and overrides any tenant_id in the body.
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	tenantID := urlParam(r, "id")
	respondBody(w, r, http.StatusCreated, tenantNotFound, func(ctx context.Context, _ *user.User, req user.CreateRequest) (*user.User, error) {
		req.TenantID = tenantID
		return h.Directory.CreateUser(ctx, req)
	})
}

// ListUsers handles GET /api/v1/tenants/{id}/users.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	tenantID := urlParam(r, "id")
	respondList(w, r, tenantNotFound, func(ctx context.Context, _ *user.User) ([]user.User, error) {
		return h.Directory.ListUsers(ctx, tenantID)
	})
}

// GetUser handles GET /api/v1/users/{id}.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	respond(w, r, http.StatusOK, userNotFound, func(ctx context.Context, _ *user.User) (*user.User, error) {
		return h.Directory.GetUser(ctx, id)
	})
}

// SetUserActive handles PUT /api/v1/users/{id}/active. It is not behind a
// route guard; the service decides.
func (h *Handlers) SetUserActive(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	respondBody(w, r, http.StatusOK, userNotFound, func(ctx context.Context, actor *user.User, req activeRequest) (*user.User, error) {
		if req.Active == nil {
			return nil, errActiveRequired
		}
		if err := h.Directory.SetUserActive(ctx, actor, id, *req.Active); err != nil {
			return nil, err
		}
		return h.Directory.GetUser(ctx, id)
	})
}

// Stats handles GET /api/v1/stats.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, "not found", h.Directory.Stats)
}
