package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Strob0t/PromptDesk/internal/domain"
	"github.com/Strob0t/PromptDesk/internal/domain/user"
	"github.com/Strob0t/PromptDesk/internal/middleware"
)

type fakeAuthn map[string]error

func (f fakeAuthn) CanAuthenticate(_ context.Context, id string) (*user.User, error) {
	if err, ok := f[id]; ok && err != nil {
		return nil, err
	}
	if _, ok := f[id]; !ok {
		return nil, domain.ErrNotFound
	}
	return &user.User{ID: id, TenantID: "t1", Role: user.RoleEditor, Active: true}, nil
}

func TestActor(t *testing.T) {
	authn := fakeAuthn{
		"ok":         nil,
		"inactive":   &domain.UserInactiveError{UserID: "inactive"},
		"off-tenant": &domain.TenantInactiveError{TenantID: "t1"},
		"broken":     errors.New("db down"),
	}

	tests := []struct {
		name   string
		path   string
		userID string
		want   int
	}{
		{"active user", "/api/v1/content", "ok", http.StatusOK},
		{"missing header", "/api/v1/content", "", http.StatusUnauthorized},
		{"unknown user", "/api/v1/content", "ghost", http.StatusUnauthorized},
		{"inactive user", "/api/v1/content", "inactive", http.StatusForbidden},
		{"inactive tenant", "/api/v1/content", "off-tenant", http.StatusForbidden},
		{"store failure", "/api/v1/content", "broken", http.StatusInternalServerError},
		{"public path", "/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.Actor(authn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.userID != "" && middleware.UserFromContext(r.Context()) == nil {
					t.Error("expected actor in context")
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			if tt.userID != "" {
				req.Header.Set(middleware.HeaderUserID, tt.userID)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
