package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// actorKey is the key used to store the acting user in the Gin context.
const actorKey = contextKey("actor")

// ActorHeader names the user or job on whose behalf a request is made.
const ActorHeader = "X-Actor"

// DefaultActor is recorded when a request carries no actor.
const DefaultActor = "system"

// ActorMiddleware stores the request's actor for the audit fields of everything it writes.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(ActorHeader)
		if actor == "" {
			actor = DefaultActor
		}
		c.Set(string(actorKey), actor)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), actorKey, actor))
		c.Next()
	}
}

// GetActorFromContext retrieves the actor from the Gin context, falling back to DefaultActor.
func GetActorFromContext(c *gin.Context) string {
	actorVal, exists := c.Get(string(actorKey))
	if !exists {
		// check in the request context as well
		if actor, ok := c.Request.Context().Value(actorKey).(string); ok && actor != "" {
			return actor
		}
		return DefaultActor
	}

	actor, ok := actorVal.(string)
	if !ok || actor == "" {
		return DefaultActor
	}
	return actor
}
