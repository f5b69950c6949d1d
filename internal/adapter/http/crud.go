package http

import (
	"context"
	"net/http"

	"github.com/Strob0t/PromptDesk/internal/domain/user"
	"github.com/Strob0t/PromptDesk/internal/middleware"
)

// respond runs fn and writes its result with status. Errors go through
// writeDomainError; notFound is the message for a bare ErrNotFound.
func respond[T any](w http.ResponseWriter, r *http.Request, status int, notFound string, fn func(ctx context.Context, actor *user.User) (T, error)) {
	v, err := fn(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err, notFound)
		return
	}
	writeJSON(w, status, v)
}

// respondList is respond for collections. A nil slice is written as [].
func respondList[T any](w http.ResponseWriter, r *http.Request, notFound string, fn func(ctx context.Context, actor *user.User) ([]T, error)) {
	respond(w, r, http.StatusOK, notFound, func(ctx context.Context, actor *user.User) ([]T, error) {
		items, err := fn(ctx, actor)
		if err == nil && items == nil {
			items = []T{}
		}
		return items, err
	})
}

// respondBody decodes the request body into Req before calling fn. A body
// that fails to decode is answered with 400 or 413 and fn is not called.
func respondBody[Req, Res any](w http.ResponseWriter, r *http.Request, status int, notFound string, fn func(ctx context.Context, actor *user.User, req Req) (Res, error)) {
	req, ok := readJSON[Req](w, r)
	if !ok {
		return
	}
	respond(w, r, status, notFound, func(ctx context.Context, actor *user.User) (Res, error) {
		return fn(ctx, actor, req)
	})
}
