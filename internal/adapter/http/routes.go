package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/PromptDesk/internal/domain/user"
	"github.com/Strob0t/PromptDesk/internal/middleware"
)

// RouteOptions carries the optional per-request middleware.
type RouteOptions struct {
	RateLimiter *middleware.RateLimiter
	Idempotency func(http.Handler) http.Handler
	// MCP, when set, is served under MCPPath for the tenant resolved from
	// the request subdomain.
	MCP     http.Handler
	MCPPath string
}

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, opts RouteOptions) {
	r.Get("/health", h.Health)
	r.Get("/health/ready", h.Readiness)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Actor(h.Directory))
		if opts.RateLimiter != nil {
			r.Use(opts.RateLimiter.Handler)
		}

		if opts.MCP != nil {
			r.With(middleware.Tenant(h.Directory)).Handle(opts.MCPPath, opts.MCP)
		}

		r.Route("/api/v1", func(r chi.Router) {
			if opts.Idempotency != nil {
				r.Use(opts.Idempotency)
			}

			r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, map[string]string{"version": "0.1.0"})
			})
			r.Get("/me", h.Me)
			r.With(middleware.Tenant(h.Directory)).Get("/tenant", h.CurrentTenant)

			// Tenants
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermManageTenants))
				r.Post("/tenants", h.CreateTenant)
				r.Get("/tenants", h.ListTenants)
				r.Get("/tenants/{id}", h.GetTenant)
				r.Put("/tenants/{id}/active", h.SetTenantActive)
				r.Put("/tenants/{id}/capacity", h.UpdateTenantCapacity)
			})

			// Users
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermManageUsers))
				r.Post("/tenants/{id}/users", h.CreateUser)
				r.Get("/tenants/{id}/users", h.ListUsers)
				r.Get("/users/{id}", h.GetUser)
			})
			r.Put("/users/{id}/active", h.SetUserActive)

			r.Get("/stats", h.Stats)

			// Templates
			r.Post("/templates/validate", h.ValidateTemplate)
			r.Post("/templates/render", h.RenderTemplate)

			// Content
			r.Get("/content", h.ListContent)
			r.Post("/content", h.CreateContent)
			r.Get("/content/{id}", h.GetContent)
			r.Put("/content/{id}", h.UpdateContent)
			r.Post("/content/{id}/render", h.RenderContent)
			r.Post("/content/{id}/executions", h.RecordExecution)
		})
	})
}
