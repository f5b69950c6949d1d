package mcp

import (
	"context"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/PromptDesk/internal/domain/prompt"
	"github.com/Strob0t/PromptDesk/internal/domain/template"
)

// buildPrompts turns records into MCP prompts. Record names are not unique,
// so a repeated name gets the record ID appended.
func buildPrompts(views []prompt.View) []mcpserver.ServerPrompt {
	seen := make(map[string]bool, len(views))
	out := make([]mcpserver.ServerPrompt, 0, len(views))
	for i := range views {
		v := views[i]
		name := promptName(v.Name)
		if name == "" || seen[name] {
			name = strings.Trim(name+"_"+v.ID, "_")
		}
		seen[name] = true

		opts := []mcplib.PromptOption{mcplib.WithPromptDescription(v.Description)}
		for _, variable := range v.Variables {
			opts = append(opts, mcplib.WithArgument(variable, mcplib.RequiredArgument()))
		}
		out = append(out, mcpserver.ServerPrompt{
			Prompt:  mcplib.NewPrompt(name, opts...),
			Handler: renderHandler(v),
		})
	}
	return out
}

func renderHandler(v prompt.View) mcpserver.PromptHandlerFunc {
	return func(_ context.Context, req mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
		text, err := template.Render(v.Content, req.Params.Arguments)
		if err != nil {
			return nil, err
		}
		return &mcplib.GetPromptResult{
			Description: v.Description,
			Messages: []mcplib.PromptMessage{
				{Role: mcplib.RoleUser, Content: mcplib.NewTextContent(text)},
			},
		}, nil
	}
}

// promptName lower-cases a record name and replaces whitespace with
// underscores.
func promptName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}
