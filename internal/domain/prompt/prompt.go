// Package prompt defines the tenant-owned content records (prompts, rules
// and templates) and the execution results recorded against them.
package prompt

import (
	"errors"
	"strings"
	"time"

	"github.com/Strob0t/PromptDesk/internal/domain/template"
)

// Kind distinguishes the three content record types.
type Kind string

const (
	KindPrompt   Kind = "prompt"
	KindRule     Kind = "rule"
	KindTemplate Kind = "template"
)

// ValidKinds is the set of all valid record kinds.
var ValidKinds = map[Kind]bool{
	KindPrompt:   true,
	KindRule:     true,
	KindTemplate: true,
}

// Record is a piece of tenant content. It owns exactly one template document:
// its Content.
type Record struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	OwnerID     string    `json:"owner_id"`
	Kind        Kind      `json:"kind"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Document returns the record's template document.
func (r *Record) Document() template.Document {
	return template.Document{Content: r.Content}
}

// View is a record together with its variables, computed at read time.
type View struct {
	Record
	Variables []string `json:"variables"`
}

// NewView projects a record into its read model.
func NewView(r *Record) View {
	return View{Record: *r, Variables: r.Document().Variables()}
}

// SaveRequest creates a record, or updates one when ID is set.
type SaveRequest struct {
	ID          string `json:"id,omitempty"`
	Kind        Kind   `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// Validate checks required fields.
func (r *SaveRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Kind == "" {
		r.Kind = KindPrompt
	}
	if !ValidKinds[r.Kind] {
		return errors.New("invalid kind: must be prompt, rule, or template")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(r.Content) == "" {
		return errors.New("content is required")
	}
	return nil
}

// SaveResult is returned after a successful save. Advisories never block
// the save but must be shown to the caller.
type SaveResult struct {
	Record     View             `json:"record"`
	Advisories []template.Issue `json:"advisories"`
}

// Execution is an opaque AI execution result recorded against a record.
// Only its latency and cost metadata are interpreted.
type Execution struct {
	ID        string    `json:"id"`
	RecordID  string    `json:"record_id"`
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	Model     string    `json:"model"`
	Success   bool      `json:"success"`
	LatencyMS int64     `json:"latency_ms"`
	CostUSD   float64   `json:"cost_usd"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the execution metadata.
func (e *Execution) Validate() error {
	if e.LatencyMS < 0 {
		return errors.New("latency_ms must not be negative")
	}
	if e.CostUSD < 0 {
		return errors.New("cost_usd must not be negative")
	}
	return nil
}
