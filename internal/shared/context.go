package shared

import (
	"context"
	"strings"
)

type actorContextKey struct{}

// DefaultActor is used when the caller supplies no identity header.
const DefaultActor = "system"

// ContextWithActor stores the acting identity in context.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, strings.TrimSpace(actor))
}

// ActorFromContext extracts the acting identity, falling back to DefaultActor.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorContextKey{}).(string)
	if actor == "" {
		return DefaultActor
	}
	return actor
}
