package middleware

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// ActorHeader carries the acting user's identifier.
const ActorHeader = "X-Actor"

// AnonymousActor is recorded when a request names no actor.
const AnonymousActor = "anonymous"

const maxActorLength = 128

// ContextKey is the type for context keys
type ContextKey string

const (
	// ActorContextKey is the context key for the acting user
	ActorContextKey ContextKey = "actor"
)

// Actor extracts the acting user from the X-Actor header. With required set,
// mutating requests without an actor are rejected.
func Actor(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := strings.TrimSpace(r.Header.Get(ActorHeader))

			if utf8.RuneCountInString(actor) > maxActorLength {
				http.Error(w, "actor header too long", http.StatusBadRequest)
				return
			}

			if actor == "" {
				if required && isMutating(r.Method) {
					http.Error(w, "missing actor header", http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithActor(r.Context(), actor)
			zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("actor", actor)
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ActorContextKey, actor)
}

// ActorFromContext returns the acting user, or AnonymousActor.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(ActorContextKey).(string); ok && actor != "" {
		return actor
	}
	return AnonymousActor
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
