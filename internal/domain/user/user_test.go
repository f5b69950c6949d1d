package user

import (
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/PromptDesk/internal/domain"
)

func TestCreateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr string
	}{
		{name: "valid", req: CreateRequest{TenantID: "t1", Email: "a@b.com", FirstName: "A", Role: RoleAdmin}},
		{name: "role defaults to user", req: CreateRequest{TenantID: "t1", Email: "a@b.com", FirstName: "A"}},
		{name: "missing tenant", req: CreateRequest{Email: "a@b.com", FirstName: "A"}, wantErr: "tenant_id is required"},
		{name: "missing email", req: CreateRequest{TenantID: "t1", FirstName: "A"}, wantErr: "email is required"},
		{name: "invalid email", req: CreateRequest{TenantID: "t1", Email: "bad", FirstName: "A"}, wantErr: "invalid email format"},
		{name: "missing first name", req: CreateRequest{TenantID: "t1", Email: "a@b.com"}, wantErr: "first_name is required"},
		{name: "invalid role", req: CreateRequest{TenantID: "t1", Email: "a@b.com", FirstName: "A", Role: "superadmin"}, wantErr: "invalid role: must be admin, editor, user, or viewer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if got := err.Error(); got != tt.wantErr {
				t.Fatalf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestCreateRequest_ValidateNormalizesEmail(t *testing.T) {
	req := CreateRequest{TenantID: "t1", Email: "  Ada@Example.COM ", FirstName: "Ada"}
	if err := req.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if req.Email != "ada@example.com" {
		t.Errorf("email = %q", req.Email)
	}
	if req.Role != RoleUser {
		t.Errorf("role = %q, want user", req.Role)
	}
}

func TestAuthorize(t *testing.T) {
	admin := &User{ID: "u1", Role: RoleAdmin}
	editor := &User{ID: "u2", Role: RoleEditor}
	plain := &User{ID: "u3", Role: RoleUser}

	tests := []struct {
		name    string
		actor   *User
		perm    Permission
		allowed bool
	}{
		{"admin manages users", admin, PermManageUsers, true},
		{"admin manages tenants", admin, PermManageTenants, true},
		{"editor cannot manage users", editor, PermManageUsers, false},
		{"editor edits content", editor, PermEditContent, true},
		{"user cannot edit content", plain, PermEditContent, false},
		{"user uses content", plain, PermUseContent, true},
		{"nil actor", nil, PermUseContent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.perm)
			if tt.allowed {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, domain.ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
			var fe *domain.ForbiddenError
			if !errors.As(err, &fe) || fe.Action != string(tt.perm) {
				t.Fatalf("expected ForbiddenError for %q, got %#v", tt.perm, err)
			}
		})
	}
}

func TestAPIToken_Revoked(t *testing.T) {
	tok := APIToken{ID: "k1"}
	if tok.Revoked() {
		t.Fatal("fresh token reported revoked")
	}
	now := time.Now()
	tok.RevokedAt = &now
	if !tok.Revoked() {
		t.Fatal("expected revoked")
	}
}

func TestUser_FullName(t *testing.T) {
	u := User{FirstName: "Ada", LastName: "Lovelace"}
	if got := u.FullName(); got != "Ada Lovelace" {
		t.Fatalf("FullName = %q", got)
	}
	u.LastName = ""
	if got := u.FullName(); got != "Ada" {
		t.Fatalf("FullName = %q", got)
	}
}
