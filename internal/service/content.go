package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	cfotel "github.com/Strob0t/PromptDesk/internal/adapter/otel"
	"github.com/Strob0t/PromptDesk/internal/domain"
	"github.com/Strob0t/PromptDesk/internal/domain/prompt"
	"github.com/Strob0t/PromptDesk/internal/domain/template"
	"github.com/Strob0t/PromptDesk/internal/domain/user"
	"github.com/Strob0t/PromptDesk/internal/port/database"
	"github.com/Strob0t/PromptDesk/internal/port/messagequeue"
)

// ContentService stores tenant prompts, rules and templates. It validates
// content with the template engine on save and renders it on use. Callers
// pass an actor already vetted by DirectoryService.CanAuthenticate.
type ContentService struct {
	store     database.Store
	minLength func() int
	events    *EventPublisher
	metrics   *cfotel.Metrics
}

// NewContentService creates a new ContentService. minLength supplies the
// content_too_short threshold and may be nil for the default.
func NewContentService(store database.Store, minLength func() int) *ContentService {
	if minLength == nil {
		minLength = func() int { return template.DefaultMinLength }
	}
	return &ContentService{store: store, minLength: minLength}
}

// SetEvents enables content.saved events.
func (s *ContentService) SetEvents(p *EventPublisher) { s.events = p }

// SetMetrics enables metric recording.
func (s *ContentService) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

// ValidateContent runs the template validator with the configured threshold.
func (s *ContentService) ValidateContent(ctx context.Context, content string) template.Result {
	res := template.Validator{MinLength: s.minLength()}.Validate(content)
	if s.metrics != nil {
		if !res.OK() {
			s.metrics.ValidationFailures.Add(ctx, 1)
		}
		for _, a := range res.Advisories {
			s.metrics.ValidationAdvisories.Add(ctx, 1, metric.WithAttributes(attribute.String("code", a.Code)))
		}
	}
	return res
}

// Preview renders ad-hoc content that is not stored.
func (s *ContentService) Preview(ctx context.Context, content string, values map[string]string) (string, error) {
	out, err := template.Render(content, values)
	s.recordRender(ctx, err)
	return out, err
}

// Save creates a record, or updates one when req.ID is set. Only editors and
// admins may save, and only inside their own tenant. A hard validation
// failure blocks the save; advisories are returned with the stored record.
func (s *ContentService) Save(ctx context.Context, actor *user.User, req prompt.SaveRequest) (res *prompt.SaveResult, err error) {
	ctx, span := cfotel.StartContentSpan(ctx, "save", tenantOf(actor), req.ID)
	defer func() { cfotel.EndSpan(span, err) }()

	if err := user.Authorize(actor, user.PermEditContent); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, domain.ValidationError("%s", err)
	}

	check := s.ValidateContent(ctx, req.Content)
	if err := check.Err(); err != nil {
		return nil, err
	}

	var rec *prompt.Record
	if req.ID == "" {
		rec = &prompt.Record{
			ID:          uuid.NewString(),
			TenantID:    actor.TenantID,
			OwnerID:     actor.ID,
			Kind:        req.Kind,
			Name:        req.Name,
			Description: req.Description,
			Content:     req.Content,
		}
		if err := s.store.CreateRecord(ctx, rec); err != nil {
			return nil, err
		}
	} else {
		rec, err = s.store.GetRecord(ctx, actor.TenantID, req.ID)
		if err != nil {
			return nil, err
		}
		rec.Name = req.Name
		rec.Description = req.Description
		rec.Content = req.Content
		if err := s.store.UpdateRecord(ctx, rec); err != nil {
			return nil, err
		}
	}

	view := prompt.NewView(rec)
	s.events.publish(ctx, messagequeue.SubjectContentSaved, messagequeue.ContentSavedPayload{
		RecordID:   rec.ID,
		TenantID:   rec.TenantID,
		Kind:       string(rec.Kind),
		Variables:  view.Variables,
		Advisories: len(check.Advisories),
		OccurredAt: time.Now().UTC(),
	})
	slog.InfoContext(ctx, "content saved", "record_id", rec.ID, "kind", rec.Kind, "advisories", len(check.Advisories))

	return &prompt.SaveResult{Record: view, Advisories: check.Advisories}, nil
}

// Get returns a record of the actor's tenant with its variables.
func (s *ContentService) Get(ctx context.Context, actor *user.User, id string) (*prompt.View, error) {
	if err := user.Authorize(actor, user.PermUseContent); err != nil {
		return nil, err
	}
	rec, err := s.store.GetRecord(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	v := prompt.NewView(rec)
	return &v, nil
}

// List returns the actor's tenant records, optionally filtered by kind.
func (s *ContentService) List(ctx context.Context, actor *user.User, kind prompt.Kind) ([]prompt.View, error) {
	if err := user.Authorize(actor, user.PermUseContent); err != nil {
		return nil, err
	}
	if kind != "" && !prompt.ValidKinds[kind] {
		return nil, domain.ValidationError("invalid kind %q", kind)
	}
	return s.ListForTenant(ctx, actor.TenantID, kind)
}

// ListForTenant lists records without an actor. It serves trusted
// in-process callers such as the MCP prompt server.
func (s *ContentService) ListForTenant(ctx context.Context, tenantID string, kind prompt.Kind) ([]prompt.View, error) {
	recs, err := s.store.ListRecords(ctx, tenantID, kind)
	if err != nil {
		return nil, err
	}
	views := make([]prompt.View, 0, len(recs))
	for i := range recs {
		views = append(views, prompt.NewView(&recs[i]))
	}
	return views, nil
}

// Render substitutes values into a stored record. Every variable the
// record declares must have a value.
func (s *ContentService) Render(ctx context.Context, actor *user.User, id string, values map[string]string) (out string, err error) {
	ctx, span := cfotel.StartContentSpan(ctx, "render", tenantOf(actor), id)
	defer func() { cfotel.EndSpan(span, err) }()

	if err := user.Authorize(actor, user.PermUseContent); err != nil {
		return "", err
	}
	rec, err := s.store.GetRecord(ctx, actor.TenantID, id)
	if err != nil {
		return "", err
	}
	out, err = template.Render(rec.Content, values)
	s.recordRender(ctx, err)
	return out, err
}

// RecordExecution stores an opaque AI execution result against a record.
// Only latency and cost are interpreted.
func (s *ContentService) RecordExecution(ctx context.Context, actor *user.User, recordID string, e prompt.Execution) (*prompt.Execution, error) {
	if err := user.Authorize(actor, user.PermUseContent); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, domain.ValidationError("%s", err)
	}
	if _, err := s.store.GetRecord(ctx, actor.TenantID, recordID); err != nil {
		return nil, err
	}

	e.ID = uuid.NewString()
	e.RecordID = recordID
	e.TenantID = actor.TenantID
	e.UserID = actor.ID
	if err := s.store.CreateExecution(ctx, &e); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		attrs := metric.WithAttributes(
			attribute.String("model", e.Model),
			attribute.Bool("success", e.Success),
		)
		s.metrics.ExecutionLatency.Record(ctx, float64(e.LatencyMS), attrs)
		s.metrics.ExecutionCost.Record(ctx, e.CostUSD, attrs)
	}
	return &e, nil
}

func (s *ContentService) recordRender(ctx context.Context, err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.Renders.Add(ctx, 1)
	case errors.Is(err, template.ErrMissingVariable):
		s.metrics.RenderFailures.Add(ctx, 1)
	}
}

func tenantOf(u *user.User) string {
	if u == nil {
		return ""
	}
	return u.TenantID
}
