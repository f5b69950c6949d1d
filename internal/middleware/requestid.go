// Package middleware provides HTTP middleware for PromptDesk.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Strob0t/PromptDesk/internal/logger"
)

const (
	headerRequestID = "X-Request-ID"
	maxRequestIDLen = 128
)

// RequestID adopts the caller's X-Request-ID or assigns a fresh UUID. The ID
// is echoed on the response, attached to every log record and forwarded on
// every event the request publishes.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if !acceptableRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// acceptableRequestID rejects empty, oversized and non-printable IDs so a
// client cannot forge log lines or NATS headers.
func acceptableRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
