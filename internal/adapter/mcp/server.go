// Package mcp serves a tenant's stored prompts and templates over the Model
// Context Protocol. Each record becomes an MCP prompt whose arguments are the
// record's variables. A couple of tools expose the template engine itself.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/PromptDesk/internal/domain/prompt"
	"github.com/Strob0t/PromptDesk/internal/domain/template"
	"github.com/Strob0t/PromptDesk/internal/domain/user"
	"github.com/Strob0t/PromptDesk/internal/middleware"
)

// ContentSource provides the records and validation the server exposes.
type ContentSource interface {
	ListForTenant(ctx context.Context, tenantID string, kind prompt.Kind) ([]prompt.View, error)
	ValidateContent(ctx context.Context, content string) template.Result
}

// ServerConfig holds MCP server identity.
type ServerConfig struct {
	Name    string
	Version string
}

// ServerDeps holds the dependencies of the MCP server.
type ServerDeps struct {
	Content ContentSource
}

// Server builds tenant-scoped MCP servers. Prompts change whenever content
// is saved, so a fresh server is assembled per request from current records.
type Server struct {
	cfg  ServerConfig
	deps ServerDeps
}

// NewServer creates a new MCP server.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	if cfg.Name == "" {
		cfg.Name = "promptdesk"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	return &Server{cfg: cfg, deps: deps}
}

// ForTenant assembles an MCP server holding tenantID's prompts, the engine
// tools and the rules resource.
func (s *Server) ForTenant(ctx context.Context, tenantID string) (*mcpserver.MCPServer, error) {
	srv := mcpserver.NewMCPServer(s.cfg.Name, s.cfg.Version,
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithResourceCapabilities(false, false),
	)

	if s.deps.Content != nil {
		views, err := s.promptViews(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("list prompts: %w", err)
		}
		srv.AddPrompts(buildPrompts(views)...)
	}
	s.registerTools(srv)
	s.registerResources(srv, tenantID)
	return srv, nil
}

// promptViews returns the tenant's prompt and template records. Rules are
// published as a resource instead.
func (s *Server) promptViews(ctx context.Context, tenantID string) ([]prompt.View, error) {
	var out []prompt.View
	for _, kind := range []prompt.Kind{prompt.KindPrompt, prompt.KindTemplate} {
		views, err := s.deps.Content.ListForTenant(ctx, tenantID, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, views...)
	}
	return out, nil
}

// ServeHTTP serves one stateless MCP exchange for the tenant resolved by
// the Tenant middleware.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t := middleware.TenantFromContext(r.Context())
	if t == nil {
		http.Error(w, "tenant subdomain required", http.StatusBadRequest)
		return
	}
	if actor := middleware.UserFromContext(r.Context()); actor != nil {
		if err := user.Authorize(actor, user.PermUseContent); err != nil {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
	}

	srv, err := s.ForTenant(r.Context(), t.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "mcp: build server", "tenant_id", t.ID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	mcpserver.NewStreamableHTTPServer(srv, mcpserver.WithStateLess(true)).ServeHTTP(w, r)
}
