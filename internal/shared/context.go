package shared

import (
	"context"
	"strings"
)

// DefaultActor labels changes made without an explicit actor.
const DefaultActor = "system"

type actorContextKey struct{}

// ContextWithActor stores the acting-user label in context.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, strings.TrimSpace(actor))
}

// ActorFromContext extracts the acting-user label, falling back to DefaultActor.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorContextKey{}).(string)
	if actor == "" {
		return DefaultActor
	}
	return actor
}
