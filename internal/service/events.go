package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Strob0t/PromptDesk/internal/port/messagequeue"
	"github.com/Strob0t/PromptDesk/internal/resilience"
)

// EventPublisher emits lifecycle events after a change has been committed.
// Publishing is best effort: failures are logged and never undo or fail the
// operation that triggered them. A nil *EventPublisher publishes nothing.
type EventPublisher struct {
	queue   messagequeue.Queue
	breaker *resilience.Breaker
	timeout time.Duration
}

// NewEventPublisher creates a publisher guarded by breaker.
func NewEventPublisher(queue messagequeue.Queue, breaker *resilience.Breaker) *EventPublisher {
	return &EventPublisher{queue: queue, breaker: breaker, timeout: 2 * time.Second}
}

func (p *EventPublisher) publish(ctx context.Context, subject string, payload any) {
	if p == nil || p.queue == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "marshal event", "subject", subject, "error", err)
		return
	}

	// Detach from request cancellation; the change is already committed.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	send := func(ctx context.Context) error { return p.queue.Publish(ctx, subject, data) }
	if p.breaker != nil {
		err = p.breaker.Execute(pubCtx, send)
	} else {
		err = send(pubCtx)
	}
	if err != nil {
		slog.WarnContext(ctx, "event publish failed", "subject", subject, "error", err)
	}
}

func (p *EventPublisher) tenantChanged(ctx context.Context, subject, tenantID, subdomain string, active bool, actorID string) {
	p.publish(ctx, subject, messagequeue.TenantEventPayload{
		TenantID:   tenantID,
		Subdomain:  subdomain,
		Active:     active,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *EventPublisher) userChanged(ctx context.Context, subject, userID, tenantID, role string, active bool, actorID string) {
	p.publish(ctx, subject, messagequeue.UserEventPayload{
		UserID:     userID,
		TenantID:   tenantID,
		Role:       role,
		Active:     active,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	})
}
