// Package domain provides shared domain-level sentinel errors.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict (optimistic locking).
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates malformed input supplied by the caller.
var ErrValidation = errors.New("validation failed")

// Directory sentinels. Structured errors below wrap these so callers can
// match with errors.Is and still read the details with errors.As.
var (
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateSubdomain = errors.New("duplicate subdomain")
	ErrDuplicateEmail     = errors.New("duplicate email")
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrTenantInactive     = errors.New("tenant inactive")
	ErrUserInactive       = errors.New("user inactive")
	ErrCapacityExceeded   = errors.New("tenant capacity exceeded")
)

// ValidationError wraps ErrValidation with a caller-facing message.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ForbiddenError reports an actor whose role does not permit an action.
type ForbiddenError struct {
	ActorID string
	Role    string
	Action  string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: role %q may not %s", e.Role, e.Action)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// DuplicateSubdomainError reports a subdomain already claimed by another tenant.
type DuplicateSubdomainError struct {
	Subdomain string
}

func (e *DuplicateSubdomainError) Error() string {
	return fmt.Sprintf("subdomain %q is already taken", e.Subdomain)
}

func (e *DuplicateSubdomainError) Unwrap() error { return ErrDuplicateSubdomain }

// DuplicateEmailError reports an email already registered within a tenant.
type DuplicateEmailError struct {
	Email    string
	TenantID string
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("email %q is already registered in tenant %s", e.Email, e.TenantID)
}

func (e *DuplicateEmailError) Unwrap() error { return ErrDuplicateEmail }

// TenantNotFoundError reports an unknown tenant, looked up either by ID or
// by Subdomain.
type TenantNotFoundError struct {
	TenantID  string
	Subdomain string
}

func (e *TenantNotFoundError) Error() string {
	if e.TenantID == "" && e.Subdomain != "" {
		return fmt.Sprintf("tenant with subdomain %q not found", e.Subdomain)
	}
	return fmt.Sprintf("tenant %s not found", e.TenantID)
}

func (e *TenantNotFoundError) Unwrap() []error { return []error{ErrTenantNotFound, ErrNotFound} }

// TenantInactiveError reports a tenant that cannot accept new users.
type TenantInactiveError struct {
	TenantID string
}

func (e *TenantInactiveError) Error() string {
	return fmt.Sprintf("tenant %s is inactive", e.TenantID)
}

func (e *TenantInactiveError) Unwrap() error { return ErrTenantInactive }

// CapacityError reports a tenant whose active user count has reached max_users.
type CapacityError struct {
	TenantID string
	Current  int
	Max      int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("tenant %s is at capacity (%d/%d users)", e.TenantID, e.Current, e.Max)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// UserInactiveError reports a deactivated user attempting to act.
type UserInactiveError struct {
	UserID string
}

func (e *UserInactiveError) Error() string {
	return fmt.Sprintf("user %s is inactive", e.UserID)
}

func (e *UserInactiveError) Unwrap() error { return ErrUserInactive }
