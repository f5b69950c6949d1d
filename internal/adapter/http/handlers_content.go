package http

import (
	"context"
	"net/http"

	"github.com/Strob0t/PromptDesk/internal/domain"
	"github.com/Strob0t/PromptDesk/internal/domain/prompt"
	"github.com/Strob0t/PromptDesk/internal/domain/template"
	"github.com/Strob0t/PromptDesk/internal/domain/user"
)

const contentNotFound = "content not found"

var errActiveRequired = domain.ValidationError("active is required")

type validateRequest struct {
	Content string `json:"content"`
}

type renderRequest struct {
	Content string            `json:"content,omitempty"`
	Values  map[string]string `json:"values"`
}

type renderResponse struct {
	Output string `json:"output"`
}

// ValidateTemplate handles POST /api/v1/templates/validate. A result with
// failures is still a 200.
func (h *Handlers) ValidateTemplate(w http.ResponseWriter, r *http.Request) {
	respondBody(w, r, http.StatusOK, "", func(ctx context.Context, _ *user.User, req validateRequest) (template.Result, error) {
		return h.Content.ValidateContent(ctx, req.Content), nil
	})
}

// RenderTemplate handles POST /api/v1/templates/render for unsaved content.
func (h *Handlers) RenderTemplate(w http.ResponseWriter, r *http.Request) {
	respondBody(w, r, http.StatusOK, "", func(ctx context.Context, _ *user.User, req renderRequest) (renderResponse, error) {
		out, err := h.Content.Preview(ctx, req.Content, req.Values)
		return renderResponse{Output: out}, err
	})
}

// ListContent handles GET /api/v1/content?kind=.
func (h *Handlers) ListContent(w http.ResponseWriter, r *http.Request) {
	kind := prompt.Kind(r.URL.Query().Get("kind"))
	respondList(w, r, contentNotFound, func(ctx context.Context, actor *user.User) ([]prompt.View, error) {
		return h.Content.List(ctx, actor, kind)
	})
}

// GetContent handles GET /api/v1/content/{id}.
func (h *Handlers) GetContent(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	respond(w, r, http.StatusOK, contentNotFound, func(ctx context.Context, actor *user.User) (*prompt.View, error) {
		return h.Content.Get(ctx, actor, id)
	})
}

// CreateContent handles POST /api/v1/content. Any id in the body is ignored.
func (h *Handlers) CreateContent(w http.ResponseWriter, r *http.Request) {
	h.saveContent(w, r, "", http.StatusCreated)
}

// UpdateContent handles PUT /api/v1/content/{id}.
func (h *Handlers) UpdateContent(w http.ResponseWriter, r *http.Request) {
	h.saveContent(w, r, urlParam(r, "id"), http.StatusOK)
}

func (h *Handlers) saveContent(w http.ResponseWriter, r *http.Request, id string, status int) {
	respondBody(w, r, status, contentNotFound, func(ctx context.Context, actor *user.User, req prompt.SaveRequest) (*prompt.SaveResult, error) {
		req.ID = id
		return h.Content.Save(ctx, actor, req)
	})
}

// RenderContent handles POST /api/v1/content/{id}/render.
func (h *Handlers) RenderContent(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	respondBody(w, r, http.StatusOK, contentNotFound, func(ctx context.Context, actor *user.User, req renderRequest) (renderResponse, error) {
		out, err := h.Content.Render(ctx, actor, id, req.Values)
		return renderResponse{Output: out}, err
	})
}

// RecordExecution handles POST /api/v1/content/{id}/executions.
func (h *Handlers) RecordExecution(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	respondBody(w, r, http.StatusCreated, contentNotFound, func(ctx context.Context, actor *user.User, req prompt.Execution) (*prompt.Execution, error) {
		return h.Content.RecordExecution(ctx, actor, id, req)
	})
}
