package tenant

import "testing"

func TestCreateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr string
	}{
		{name: "valid", req: CreateRequest{Name: "Acme", Subdomain: "acme", MaxUsers: 5}},
		{name: "mixed case subdomain normalized", req: CreateRequest{Name: "Acme", Subdomain: " ACME-eu ", MaxUsers: 1}},
		{name: "missing name", req: CreateRequest{Subdomain: "acme", MaxUsers: 5}, wantErr: "tenant name is required"},
		{name: "short subdomain", req: CreateRequest{Name: "A", Subdomain: "ab", MaxUsers: 5}, wantErr: "invalid subdomain: must be 3-63 lowercase alphanumeric characters or hyphens"},
		{name: "leading hyphen", req: CreateRequest{Name: "A", Subdomain: "-acme", MaxUsers: 5}, wantErr: "invalid subdomain: must be 3-63 lowercase alphanumeric characters or hyphens"},
		{name: "dot in subdomain", req: CreateRequest{Name: "A", Subdomain: "ac.me", MaxUsers: 5}, wantErr: "invalid subdomain: must be 3-63 lowercase alphanumeric characters or hyphens"},
		{name: "zero capacity", req: CreateRequest{Name: "A", Subdomain: "acme", MaxUsers: 0}, wantErr: "max_users must be a positive integer"},
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
				t.Fatalf("expected error %q, got nil", tt.wantErr)
			}
			if got := err.Error(); got != tt.wantErr {
				t.Fatalf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestCreateRequest_ValidateNormalizes(t *testing.T) {
	req := CreateRequest{Name: "  Acme  ", Subdomain: " Acme-EU ", MaxUsers: 3}
	if err := req.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if req.Subdomain != "acme-eu" {
		t.Errorf("subdomain = %q, want acme-eu", req.Subdomain)
	}
	if req.Name != "Acme" {
		t.Errorf("name = %q, want Acme", req.Name)
	}
}
