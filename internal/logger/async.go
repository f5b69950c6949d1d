package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer flushes buffered log output on shutdown.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// queue is the state shared by a BufferedHandler and every handler derived
// from it through WithAttrs or WithGroup.
type queue struct {
	mu      sync.RWMutex
	closed  bool
	jobs    chan job
	workers sync.WaitGroup
	dropped atomic.Int64
	out     slog.Handler // root handler, used for the drop summary
}

type job struct {
	h   slog.Handler
	rec slog.Record
}

// BufferedHandler hands records to a fixed pool of writer goroutines so that
// request handlers never block on stdout. Records at LevelError and above
// are written inline and are never dropped. Lower levels are dropped when
// the buffer is full.
type BufferedHandler struct {
	next slog.Handler
	q    *queue
}

// NewAsyncHandler starts workers goroutines draining a buffer of size
// bufSize into next.
func NewAsyncHandler(next slog.Handler, bufSize, workers int) *BufferedHandler {
	q := &queue{jobs: make(chan job, bufSize), out: next}
	q.workers.Add(workers)
	for range workers {
		go func() {
			defer q.workers.Done()
			for j := range q.jobs {
				_ = j.h.Handle(context.Background(), j.rec)
			}
		}()
	}
	return &BufferedHandler{next: next, q: q}
}

func (h *BufferedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *BufferedHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler signature
	if rec.Level >= slog.LevelError {
		return h.next.Handle(ctx, rec)
	}

	h.q.mu.RLock()
	defer h.q.mu.RUnlock()
	if h.q.closed {
		return h.next.Handle(ctx, rec)
	}
	select {
	case h.q.jobs <- job{h: h.next, rec: rec.Clone()}:
	default:
		h.q.dropped.Add(1)
	}
	return nil
}

func (h *BufferedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &BufferedHandler{next: h.next.WithAttrs(attrs), q: h.q}
}

func (h *BufferedHandler) WithGroup(name string) slog.Handler {
	return &BufferedHandler{next: h.next.WithGroup(name), q: h.q}
}

// DroppedCount reports how many records were discarded on a full buffer.
func (h *BufferedHandler) DroppedCount() int64 {
	return h.q.dropped.Load()
}

// Close drains the buffer and stops the workers. If records were dropped a
// single warning with the count is written. Records logged after Close are
// written inline. Close is safe to call more than once.
func (h *BufferedHandler) Close() {
	h.q.mu.Lock()
	if h.q.closed {
		h.q.mu.Unlock()
		return
	}
	h.q.closed = true
	close(h.q.jobs)
	h.q.mu.Unlock()

	h.q.workers.Wait()

	if n := h.q.dropped.Load(); n > 0 {
		l := slog.New(h.q.out)
		l.Warn("log records dropped", "count", n)
	}
}
