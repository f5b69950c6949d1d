package middleware_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/PromptDesk/internal/domain/user"
	"github.com/Strob0t/PromptDesk/internal/middleware"
)

// memCache is an in-memory cache.Cache for testing.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memCache) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func countingHandler(counter *int, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*counter++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"call":%d}`, *counter)
	})
}

func post(h http.Handler, key string, u *user.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", http.NoBody)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	if u != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), u))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_NoHeader(t *testing.T) {
	counter := 0
	store := newMemCache()
	h := middleware.Idempotency(store, time.Hour)(countingHandler(&counter, http.StatusCreated))

	post(h, "", nil)
	post(h, "", nil)
	if counter != 2 || store.len() != 0 {
		t.Fatalf("calls = %d, stored = %d", counter, store.len())
	}
}

func TestIdempotency_SecondRequestReplays(t *testing.T) {
	counter := 0
	h := middleware.Idempotency(newMemCache(), time.Hour)(countingHandler(&counter, http.StatusCreated))

	first := post(h, "key-1", nil)
	second := post(h, "key-1", nil)

	if counter != 1 {
		t.Fatalf("expected handler called once, got %d", counter)
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Fatalf("replay = %d %q, want %d %q", second.Code, second.Body.String(), first.Code, first.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatal("expected replay marker header")
	}
}

func TestIdempotency_ScopedPerActor(t *testing.T) {
	counter := 0
	h := middleware.Idempotency(newMemCache(), time.Hour)(countingHandler(&counter, http.StatusCreated))

	post(h, "same", &user.User{ID: "u1"})
	post(h, "same", &user.User{ID: "u2"})
	if counter != 2 {
		t.Fatalf("expected 2 calls, got %d", counter)
	}
}

func TestIdempotency_ServerErrorsNotStored(t *testing.T) {
	counter := 0
	store := newMemCache()
	h := middleware.Idempotency(store, time.Hour)(countingHandler(&counter, http.StatusServiceUnavailable))

	post(h, "retry-me", nil)
	post(h, "retry-me", nil)
	if counter != 2 || store.len() != 0 {
		t.Fatalf("calls = %d, stored = %d", counter, store.len())
	}
}

func TestIdempotency_GETIgnored(t *testing.T) {
	counter := 0
	h := middleware.Idempotency(newMemCache(), time.Hour)(countingHandler(&counter, http.StatusOK))

	for range 2 {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users", http.NoBody)
		req.Header.Set("Idempotency-Key", "key-get")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	if counter != 2 {
		t.Fatalf("expected 2 calls, got %d", counter)
	}
}
