package messagequeue

import "time"

// TenantEventPayload is the schema for tenants.* messages.
type TenantEventPayload struct {
	TenantID   string    `json:"tenant_id"`
	Subdomain  string    `json:"subdomain"`
	Active     bool      `json:"is_active"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UserEventPayload is the schema for users.* messages.
type UserEventPayload struct {
	UserID     string    `json:"user_id"`
	TenantID   string    `json:"tenant_id"`
	Role       string    `json:"role"`
	Active     bool      `json:"is_active"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ContentSavedPayload is the schema for content.saved messages.
type ContentSavedPayload struct {
	RecordID   string    `json:"record_id"`
	TenantID   string    `json:"tenant_id"`
	Kind       string    `json:"kind"`
	Variables  []string  `json:"variables"`
	Advisories int       `json:"advisories"`
	OccurredAt time.Time `json:"occurred_at"`
}
