package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type correlationIDKey struct{}

type actorKey struct{}

var (
	correlationKey = correlationIDKey{}
	currentActor   = actorKey{}
)

// Actor is the authenticated user performing a request.
type Actor struct {
	UserID uint
	Role   string
}

// Authenticated reports whether the actor carries a user identity.
func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

// HasRole reports whether the actor holds any of the given roles.
func (a Actor) HasRole(roles ...string) bool {
	current := strings.ToLower(strings.TrimSpace(a.Role))
	for _, role := range roles {
		if current != "" && current == strings.ToLower(role) {
			return true
		}
	}
	return false
}

// CorrelationID middleware ensures every request carries a correlation identifier.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		incoming := strings.TrimSpace(c.Get("X-Correlation-ID"))
		if incoming == "" {
			incoming = strings.TrimSpace(c.Get("X-Request-ID"))
		}
		if incoming == "" {
			incoming = uuid.NewString()
		}

		c.Locals("correlation_id", incoming)
		c.Set("X-Correlation-ID", incoming)

		c.SetUserContext(ContextWithCorrelation(c.UserContext(), incoming))

		return c.Next()
	}
}

// CorrelationIDFromContext extracts the correlation identifier from context, if present.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationKey).(string); ok {
		return id
	}
	return ""
}

// GetCorrelationID returns the correlation identifier bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals("correlation_id").(string); ok {
		return id
	}
	return CorrelationIDFromContext(c.UserContext())
}

// ContextWithCorrelation attaches the correlation identifier to the provided context.
func ContextWithCorrelation(ctx context.Context, correlationID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(correlationID) == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey, strings.TrimSpace(correlationID))
}

// ContextWithActor attaches the current actor to ctx.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, currentActor, actor)
}

// ActorFromContext returns the actor bound to ctx. The zero Actor means anonymous.
func ActorFromContext(ctx context.Context) Actor {
	if ctx == nil {
		return Actor{}
	}
	if actor, ok := ctx.Value(currentActor).(Actor); ok {
		return actor
	}
	return Actor{}
}

// RequestContext derives the context handed to services: the request's user context plus
// correlation ID and actor.
func RequestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = ContextWithCorrelation(ctx, GetCorrelationID(c))
	return ContextWithActor(ctx, actorFromLocals(c))
}

func actorFromLocals(c *fiber.Ctx) Actor {
	actor := Actor{Role: normalizeRoleValue(c.Locals("user_role"))}
	switch id := c.Locals("user_id").(type) {
	case uint:
		actor.UserID = id
	case int:
		if id > 0 {
			actor.UserID = uint(id)
		}
	}
	return actor
}
