package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/riftarena/arena-system/models"
	"github.com/riftarena/arena-system/services"
)

type contextKey string

const actorContextKey contextKey = "actor"

var ErrNoActor = errors.New("no authenticated actor in context")

// TokenParser validates a bearer token and returns the actor it
// encodes. Satisfied by services.AuthService.
type TokenParser interface {
	ParseToken(tokenString string) (services.Actor, error)
}

// Authenticate extracts and validates the Authorization bearer token,
// putting the resulting actor into the request context.
func Authenticate(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			actor, err := parser.ParseToken(token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), actorContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize allows the request through only when the actor's role is in
// the list. Must run after Authenticate.
func Authorize(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := GetActorFromContext(r.Context())
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}

func GetActorFromContext(ctx context.Context) (services.Actor, error) {
	actor, ok := ctx.Value(actorContextKey).(services.Actor)
	if !ok || actor.ID == "" {
		return services.Actor{}, ErrNoActor
	}
	return actor, nil
}
