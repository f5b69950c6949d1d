package nats

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/Strob0t/PromptDesk/internal/logger"
	"github.com/Strob0t/PromptDesk/internal/port/messagequeue"
)

// natsURL skips the test unless a server is available.
func natsURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}
	return url
}

type delivery struct {
	subject   string
	data      []byte
	requestID string
}

// subscribeOnce subscribes to filter and returns a channel that receives
// messages whose payload contains marker.
func subscribeOnce(t *testing.T, q *Queue, filter, marker string) <-chan delivery {
	t.Helper()
	ch := make(chan delivery, 1)
	stop, err := q.Subscribe(context.Background(), filter, func(ctx context.Context, subject string, data []byte) error {
		if !json.Valid(data) || !containsMarker(data, marker) {
			return nil
		}
		select {
		case ch <- delivery{subject: subject, data: data, requestID: logger.RequestID(ctx)}:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe %s: %v", filter, err)
	}
	t.Cleanup(stop)
	return ch
}

func containsMarker(data []byte, marker string) bool {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}
	for _, v := range fields {
		if s, ok := v.(string); ok && s == marker {
			return true
		}
	}
	return false
}

func await(t *testing.T, ch <-chan delivery) delivery {
	t.Helper()
	select {
	case d := <-ch:
		return d
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
		return delivery{}
	}
}

func TestQueue(t *testing.T) {
	url := natsURL(t)
	ctx := context.Background()

	q, err := Connect(ctx, url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })

	if !q.IsConnected() {
		t.Fatal("expected connected queue")
	}

	t.Run("wildcard filter receives user events", func(t *testing.T) {
		marker := "u-" + t.Name()
		ch := subscribeOnce(t, q, "users.>", marker)

		data, _ := json.Marshal(messagequeue.UserEventPayload{UserID: marker, TenantID: "t1", Role: "editor", Active: true})
		if err := q.Publish(ctx, messagequeue.SubjectUserCreated, data); err != nil {
			t.Fatalf("Publish: %v", err)
		}
		if d := await(t, ch); d.subject != messagequeue.SubjectUserCreated {
			t.Fatalf("subject = %q", d.subject)
		}
	})

	t.Run("request id travels in headers", func(t *testing.T) {
		marker := "t-" + t.Name()
		ch := subscribeOnce(t, q, messagequeue.SubjectTenantDeactivated, marker)

		data, _ := json.Marshal(messagequeue.TenantEventPayload{TenantID: marker, Subdomain: "acme"})
		reqCtx := logger.WithRequestID(ctx, "req-7f3a")
		if err := q.Publish(reqCtx, messagequeue.SubjectTenantDeactivated, data); err != nil {
			t.Fatalf("Publish: %v", err)
		}
		if d := await(t, ch); d.requestID != "req-7f3a" {
			t.Fatalf("request id = %q", d.requestID)
		}
	})

	t.Run("schema mismatch is rejected before publish", func(t *testing.T) {
		err := q.Publish(ctx, messagequeue.SubjectContentSaved, []byte(`{"record_id":["p1"]}`))
		if err == nil {
			t.Fatal("expected schema validation error")
		}
	})

	t.Run("kv bucket round trip", func(t *testing.T) {
		kv, err := q.KeyValue(ctx, "PROMPTDESK_QUEUE_TEST", time.Minute)
		if err != nil {
			t.Fatalf("KeyValue: %v", err)
		}
		if _, err := kv.Put(ctx, "tenant.subdomain.acme", []byte("t1")); err != nil {
			t.Fatalf("Put: %v", err)
		}
		e, err := kv.Get(ctx, "tenant.subdomain.acme")
		if err != nil || string(e.Value()) != "t1" {
			t.Fatalf("Get = %v, %v", e, err)
		}
	})
}
