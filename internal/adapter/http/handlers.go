package http

import (
	"context"
	"net/http"

	"github.com/Strob0t/PromptDesk/internal/middleware"
	"github.com/Strob0t/PromptDesk/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Directory *service.DirectoryService
	Content   *service.ContentService
	// Ready reports whether backing services are reachable. Nil means ready.
	Ready func(ctx context.Context) error
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness reports whether storage and messaging are reachable.
func (h *Handlers) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		if err := h.Ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Me returns the acting user.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.UserFromContext(r.Context()))
}

// CurrentTenant returns the tenant resolved from the request subdomain.
func (h *Handlers) CurrentTenant(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.TenantFromContext(r.Context()))
}
