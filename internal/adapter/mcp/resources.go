package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/PromptDesk/internal/domain/prompt"
)

const rulesURI = "promptdesk://rules"

// registerResources registers the tenant's rules resource on srv.
func (s *Server) registerResources(srv *mcpserver.MCPServer, tenantID string) {
	srv.AddResource(
		mcplib.NewResource(
			rulesURI,
			"Rules",
			mcplib.WithResourceDescription("Rules defined for this tenant"),
			mcplib.WithMIMEType("application/json"),
		),
		func(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
			return s.readRules(ctx, tenantID, req.Params.URI)
		},
	)
}

func (s *Server) readRules(ctx context.Context, tenantID, uri string) ([]mcplib.ResourceContents, error) {
	if s.deps.Content == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      uri,
				MIMEType: "application/json",
				Text:     `{"error":"content source not configured"}`,
			},
		}, nil
	}
	rules, err := s.deps.Content.ListForTenant(ctx, tenantID, prompt.KindRule)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(rules)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
