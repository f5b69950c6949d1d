package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/PromptDesk/internal/domain/template"
)

// registerTools registers the template engine tools on srv.
func (s *Server) registerTools(srv *mcpserver.MCPServer) {
	srv.AddTools(
		s.validateTemplateTool(),
		s.renderTemplateTool(),
	)
}

func (s *Server) validateTemplateTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("validate_template",
		mcplib.WithDescription("Validate template content and list its variables"),
		mcplib.WithString("content",
			mcplib.Required(),
			mcplib.Description("The template content to check"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleValidateTemplate,
	}
}

func (s *Server) renderTemplateTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("render_template",
		mcplib.WithDescription("Substitute values into template content"),
		mcplib.WithString("content",
			mcplib.Required(),
			mcplib.Description("The template content to render"),
		),
		mcplib.WithObject("values",
			mcplib.Description("Variable values keyed by name"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleRenderTemplate,
	}
}

func (s *Server) handleValidateTemplate(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	content, ok := req.GetArguments()["content"].(string)
	if !ok {
		return mcplib.NewToolResultError("content is required"), nil
	}

	var res template.Result
	if s.deps.Content != nil {
		res = s.deps.Content.ValidateContent(ctx, content)
	} else {
		res = template.Validator{}.Validate(content)
	}
	data, err := json.Marshal(res)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleRenderTemplate(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	args := req.GetArguments()
	content, ok := args["content"].(string)
	if !ok {
		return mcplib.NewToolResultError("content is required"), nil
	}
	raw, _ := args["values"].(map[string]any)
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if str, isStr := v.(string); isStr {
			values[k] = str
			continue
		}
		values[k] = fmt.Sprint(v)
	}

	out, err := template.Render(content, values)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("render failed", err), nil
	}
	return mcplib.NewToolResultText(out), nil
}

func toolResultJSON(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: text},
		},
	}
}
