package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/Strob0t/PromptDesk/internal/domain"
	"github.com/Strob0t/PromptDesk/internal/domain/tenant"
	"github.com/Strob0t/PromptDesk/internal/domain/user"
)

// HeaderTenantSubdomain overrides the subdomain taken from the Host header.
const HeaderTenantSubdomain = "X-Tenant-Subdomain"

type tenantCtxKey struct{}

// TenantResolver maps a subdomain to its tenant.
type TenantResolver interface {
	ResolveTenant(ctx context.Context, subdomain string) (*tenant.Tenant, error)
}

// Tenant is middleware that resolves the request's tenant from its
// subdomain and stores it in the request context. Inactive tenants are
// refused. When an actor is already in the context it must belong to the
// tenant, unless it is an admin.
func Tenant(resolver TenantResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := SubdomainFromRequest(r)
			if sub == "" {
				writeError(w, http.StatusBadRequest, "tenant subdomain required")
				return
			}

			t, err := resolver.ResolveTenant(r.Context(), sub)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrTenantNotFound):
				writeError(w, http.StatusNotFound, "tenant not found")
				return
			case errors.Is(err, domain.ErrValidation):
				writeError(w, http.StatusBadRequest, err.Error())
				return
			default:
				slog.ErrorContext(r.Context(), "resolve tenant", "subdomain", sub, "error", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			if !t.Active {
				writeError(w, http.StatusForbidden, (&domain.TenantInactiveError{TenantID: t.ID}).Error())
				return
			}
			if u := UserFromContext(r.Context()); u != nil && u.TenantID != t.ID && u.Role != user.RoleAdmin {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}

			ctx := context.WithValue(r.Context(), tenantCtxKey{}, t)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantFromContext returns the tenant resolved for the request, or nil.
func TenantFromContext(ctx context.Context) *tenant.Tenant {
	t, _ := ctx.Value(tenantCtxKey{}).(*tenant.Tenant)
	return t
}

// SubdomainFromRequest returns the X-Tenant-Subdomain header, or else the
// leftmost label of a Host with at least three labels.
func SubdomainFromRequest(r *http.Request) string {
	if sub := strings.TrimSpace(r.Header.Get(HeaderTenantSubdomain)); sub != "" {
		return tenant.NormalizeSubdomain(sub)
	}
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if net.ParseIP(host) != nil {
		return ""
	}
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return ""
	}
	return tenant.NormalizeSubdomain(labels[0])
}
