package messagequeue

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		data    string
		wantErr string
	}{
		{
			name:    "tenant event",
			subject: SubjectTenantDeactivated,
			data:    `{"tenant_id":"t1","subdomain":"acme","is_active":false,"actor_id":"u1","occurred_at":"2026-01-02T03:04:05Z"}`,
		},
		{
			name:    "user event",
			subject: SubjectUserCreated,
			data:    `{"user_id":"u1","tenant_id":"t1","role":"admin","is_active":true}`,
		},
		{
			name:    "content saved",
			subject: SubjectContentSaved,
			data:    `{"record_id":"r1","tenant_id":"t1","kind":"rule","variables":["a","b"],"advisories":1}`,
		},
		{
			name:    "not json",
			subject: SubjectUserCreated,
			data:    `{not json`,
			wantErr: "invalid JSON",
		},
		{
			name:    "wrong field type",
			subject: SubjectTenantActivated,
			data:    `{"tenant_id":42}`,
			wantErr: "schema validation failed",
		},
		{
			name:    "tenant without subdomain",
			subject: SubjectTenantCreated,
			data:    `{"tenant_id":"t1"}`,
			wantErr: "subdomain is required",
		},
		{
			name:    "user without role",
			subject: SubjectUserDeactivated,
			data:    `{"user_id":"u1","tenant_id":"t1"}`,
			wantErr: "role is required",
		},
		{
			name:    "content without record",
			subject: SubjectContentSaved,
			data:    `{"tenant_id":"t1","kind":"prompt"}`,
			wantErr: "record_id is required",
		},
		{
			name:    "subject without schema",
			subject: "content.archived",
			data:    `{"anything":true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.subject, []byte(tt.data))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
