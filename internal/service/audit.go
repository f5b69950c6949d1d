package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Strob0t/PromptDesk/internal/port/messagequeue"
)

// auditSubjects are the stream filters the audit trail consumes.
var auditSubjects = []string{"tenants.>", "users.>", "content.>"}

// AuditTrail turns lifecycle events from the queue into "audit" log
// records, one per event, carrying the request ID of the change.
type AuditTrail struct {
	log *slog.Logger
}

// NewAuditTrail writes to log, or slog.Default when log is nil.
func NewAuditTrail(log *slog.Logger) *AuditTrail {
	if log == nil {
		log = slog.Default()
	}
	return &AuditTrail{log: log.With("component", "audit")}
}

// Start subscribes to every lifecycle subject. The returned stop function
// cancels all subscriptions.
func (a *AuditTrail) Start(ctx context.Context, q messagequeue.Queue) (func(), error) {
	var cancels []func()
	stop := func() {
		for _, c := range cancels {
			c()
		}
	}
	for _, subject := range auditSubjects {
		cancel, err := q.Subscribe(ctx, subject, a.handle)
		if err != nil {
			stop()
			return nil, fmt.Errorf("audit subscribe %s: %w", subject, err)
		}
		cancels = append(cancels, cancel)
	}
	return stop, nil
}

// handle never fails: a malformed event is logged and acknowledged so it is
// not redelivered.
func (a *AuditTrail) handle(ctx context.Context, subject string, data []byte) error {
	attrs, err := auditAttrs(subject, data)
	if err != nil {
		a.log.WarnContext(ctx, "unreadable event", "subject", subject, "error", err)
		return nil
	}
	a.log.LogAttrs(ctx, slog.LevelInfo, "event", append([]slog.Attr{slog.String("subject", subject)}, attrs...)...)
	return nil
}

func auditAttrs(subject string, data []byte) ([]slog.Attr, error) {
	switch {
	case strings.HasPrefix(subject, "tenants."):
		var p messagequeue.TenantEventPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return []slog.Attr{
			slog.String("tenant_id", p.TenantID),
			slog.String("subdomain", p.Subdomain),
			slog.Bool("is_active", p.Active),
			slog.String("actor_id", p.ActorID),
			slog.Time("occurred_at", p.OccurredAt),
		}, nil
	case strings.HasPrefix(subject, "users."):
		var p messagequeue.UserEventPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return []slog.Attr{
			slog.String("user_id", p.UserID),
			slog.String("tenant_id", p.TenantID),
			slog.String("role", p.Role),
			slog.Bool("is_active", p.Active),
			slog.String("actor_id", p.ActorID),
			slog.Time("occurred_at", p.OccurredAt),
		}, nil
	case subject == messagequeue.SubjectContentSaved:
		var p messagequeue.ContentSavedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return []slog.Attr{
			slog.String("record_id", p.RecordID),
			slog.String("tenant_id", p.TenantID),
			slog.String("kind", p.Kind),
			slog.Int("variables", len(p.Variables)),
			slog.Int("advisories", p.Advisories),
			slog.Time("occurred_at", p.OccurredAt),
		}, nil
	default:
		return nil, fmt.Errorf("unknown subject %q", subject)
	}
}
