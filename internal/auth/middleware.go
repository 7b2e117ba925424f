// Package auth is the seam to the authentication collaborator. Token
// verification happens upstream; this middleware only extracts the already
// authenticated actor from the gateway headers and trusts it as given.
package auth

import (
	"context"
	"net/http"
	"strconv"

	"flash-food/internal/models"
	"flash-food/internal/web"
)

type contextKey int

const actorKey contextKey = iota

// WithActor stores the actor on the context.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom returns the authenticated actor from the context.
func ActorFrom(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(models.Actor)
	return actor, ok
}

// RequireActor rejects requests that carry no authenticated actor.
func RequireActor(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.Header.Get("X-User-Id"), 10, 64)
		if err != nil {
			web.WriteError(w, http.StatusUnauthorized, "Authentication required", web.RequestID(r.Context()))
			return
		}

		role := models.Role(r.Header.Get("X-User-Role"))
		if role == "" {
			role = models.RoleCustomer
		}

		actor := models.Actor{ID: userID, Role: role}
		next(w, r.WithContext(WithActor(r.Context(), actor)))
	}
}

// RequireCapability rejects actors whose role lacks the capability.
func RequireCapability(capability models.Capability, next http.HandlerFunc) http.HandlerFunc {
	return RequireActor(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFrom(r.Context())
		if !actor.Role.Has(capability) {
			web.WriteError(w, http.StatusForbidden, "Insufficient permissions", web.RequestID(r.Context()))
			return
		}
		next(w, r)
	})
}
