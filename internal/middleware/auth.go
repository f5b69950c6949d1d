package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Strob0t/PromptDesk/internal/domain"
	"github.com/Strob0t/PromptDesk/internal/domain/user"
	"github.com/Strob0t/PromptDesk/internal/logger"
)

// HeaderUserID carries the acting user's ID. Credential checks happen
// upstream; this service only decides whether the user may act.
const HeaderUserID = "X-User-ID"

type authUserCtxKey struct{}

// publicPaths are exempt from actor resolution.
var publicPaths = map[string]bool{
	"/health":       true,
	"/health/ready": true,
}

// Authenticator decides whether a user may act right now.
type Authenticator interface {
	CanAuthenticate(ctx context.Context, userID string) (*user.User, error)
}

// Actor returns middleware that resolves X-User-ID to an active user of an
// active tenant and stores it in the request context. Unknown users get
// 401; inactive users and users of inactive tenants get 403.
func Actor(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			id := r.Header.Get(HeaderUserID)
			if id == "" {
				writeError(w, http.StatusUnauthorized, "authorization required")
				return
			}

			u, err := authn.CanAuthenticate(r.Context(), id)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrUserInactive), errors.Is(err, domain.ErrTenantInactive):
				writeError(w, http.StatusForbidden, err.Error())
				return
			case errors.Is(err, domain.ErrNotFound):
				writeError(w, http.StatusUnauthorized, "unknown user")
				return
			default:
				slog.ErrorContext(r.Context(), "resolve actor", "user_id", id, "error", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx := WithUser(r.Context(), u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser stores the acting user in ctx and tags log records with it.
func WithUser(ctx context.Context, u *user.User) context.Context {
	ctx = context.WithValue(ctx, authUserCtxKey{}, u)
	return logger.WithActor(ctx, u.ID, u.TenantID)
}

// UserFromContext returns the acting user from the request context.
func UserFromContext(ctx context.Context) *user.User {
	u, _ := ctx.Value(authUserCtxKey{}).(*user.User)
	return u
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
