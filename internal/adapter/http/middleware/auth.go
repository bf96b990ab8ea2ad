package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/dto"
	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/auth"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// ActorContextKey is the context key for the acting family member
	ActorContextKey ContextKey = "actor"

	// Headers identifying the actor when token auth is disabled.
	ActorIDHeader   = "X-Actor-ID"
	ActorNameHeader = "X-Actor-Name"

	maxActorFieldLength = 64
)

// AuthMiddleware requires a valid bearer token and takes the actor from its
// claims.
func AuthMiddleware(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || scheme != "Bearer" {
				writeJSONError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := jwtManager.Verify(token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "token expired"
				}
				writeJSONError(w, http.StatusUnauthorized, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), claims.Actor())))
		})
	}
}

// HeaderActor takes the actor from the X-Actor-ID and X-Actor-Name headers.
// Both are optional; a request without them acts anonymously.
func HeaderActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := domain.Actor{
			ID:   r.Header.Get(ActorIDHeader),
			Name: r.Header.Get(ActorNameHeader),
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// WithActor stores a sanitised copy of actor in ctx.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	actor.ID = truncate(dto.SanitizeText(actor.ID))
	actor.Name = truncate(dto.SanitizeText(actor.Name))

	return context.WithValue(ctx, ActorContextKey, actor)
}

// ActorFromContext returns the actor of the request, or the zero actor.
func ActorFromContext(ctx context.Context) domain.Actor {
	actor, _ := ctx.Value(ActorContextKey).(domain.Actor)
	return actor
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) > maxActorFieldLength {
		return string(runes[:maxActorFieldLength])
	}
	return s
}
