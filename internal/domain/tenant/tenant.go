// Package tenant defines the tenant domain model for multi-tenancy.
package tenant

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Tenant represents an isolated customer organization. The tenant is the
// authority for user capacity.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Subdomain string    `json:"subdomain"`
	MaxUsers  int       `json:"max_users"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var subdomainRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,61}[a-z0-9]$`)

// NormalizeSubdomain lower-cases and trims a subdomain. Subdomains drive
// host-based routing, so comparisons are always case-insensitive.
func NormalizeSubdomain(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CreateRequest holds the fields required to create a new tenant.
type CreateRequest struct {
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
	MaxUsers  int    `json:"max_users"`
}

// Validate normalizes the subdomain and checks required fields.
func (r *CreateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Subdomain = NormalizeSubdomain(r.Subdomain)
	if r.Name == "" {
		return errors.New("tenant name is required")
	}
	if !subdomainRegex.MatchString(r.Subdomain) {
		return errors.New("invalid subdomain: must be 3-63 lowercase alphanumeric characters or hyphens")
	}
	if r.MaxUsers <= 0 {
		return errors.New("max_users must be a positive integer")
	}
	return nil
}
