// Package user defines the user domain model and the role-based
// authorization rules for directory actions.
package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Role represents the authorization level of a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleUser   Role = "user"
	RoleViewer Role = "viewer"
)

// ValidRoles is the set of all valid user roles.
var ValidRoles = map[Role]bool{
	RoleAdmin:  true,
	RoleEditor: true,
	RoleUser:   true,
	RoleViewer: true,
}

// User represents a registered user within a tenant. The user references its
// tenant but does not own it.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Role      Role       `json:"role"`
	TenantID  string     `json:"tenant_id"`
	Active    bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail lower-cases and trims an email address. Uniqueness within a
// tenant is checked on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateRequest is the input for registering a new user.
type CreateRequest struct {
	TenantID  string `json:"tenant_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// Validate normalizes the email, defaults the role and checks required fields.
func (r *CreateRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	if r.Role == "" {
		r.Role = RoleUser
	}
	if r.TenantID == "" {
		return errors.New("tenant_id is required")
	}
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if strings.TrimSpace(r.FirstName) == "" {
		return errors.New("first_name is required")
	}
	if !ValidRoles[r.Role] {
		return errors.New("invalid role: must be admin, editor, user, or viewer")
	}
	return nil
}
