package messagequeue

import (
	"encoding/json"
	"fmt"
	"strings"
)

// payload is implemented by every event schema. missing names the first
// required field left empty, or returns "".
type payload interface {
	missing() string
}

func (p *TenantEventPayload) missing() string {
	switch {
	case p.TenantID == "":
		return "tenant_id"
	case p.Subdomain == "":
		return "subdomain"
	}
	return ""
}

func (p *UserEventPayload) missing() string {
	switch {
	case p.UserID == "":
		return "user_id"
	case p.TenantID == "":
		return "tenant_id"
	case p.Role == "":
		return "role"
	}
	return ""
}

func (p *ContentSavedPayload) missing() string {
	switch {
	case p.RecordID == "":
		return "record_id"
	case p.TenantID == "":
		return "tenant_id"
	case p.Kind == "":
		return "kind"
	}
	return ""
}

// schemaFor returns an empty payload for subject, or nil when the subject
// carries no schema.
func schemaFor(subject string) payload {
	family, _, _ := strings.Cut(subject, ".")
	switch {
	case family == "tenants":
		return &TenantEventPayload{}
	case family == "users":
		return &UserEventPayload{}
	case subject == SubjectContentSaved:
		return &ContentSavedPayload{}
	}
	return nil
}

// Validate checks data against the schema for subject: it must decode into
// the payload type and carry its identifying fields. Subjects without a
// schema only need to be valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}
	p := schemaFor(subject)
	if p == nil {
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	if field := p.missing(); field != "" {
		return fmt.Errorf("schema validation failed for %s: %s is required", subject, field)
	}
	return nil
}
