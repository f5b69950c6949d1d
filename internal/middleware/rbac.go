package middleware

import (
	"net/http"

	"github.com/Strob0t/PromptDesk/internal/domain/user"
)

// RequirePermission guards a route group with the same rule table the
// services consult, so the route check and the service check agree.
// Missing actors get 401, actors lacking perm get 403.
func RequirePermission(perm user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := UserFromContext(r.Context())
			switch err := user.Authorize(actor, perm); {
			case actor == nil:
				writeError(w, http.StatusUnauthorized, "authorization required")
			case err != nil:
				writeError(w, http.StatusForbidden, err.Error())
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
