package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActorContext(t *testing.T) {
	ctx := context.Background()
	require.Equal(t, DefaultActor, ActorFromContext(ctx))

	ctx = ContextWithActor(ctx, "nurse-kim")
	require.Equal(t, "nurse-kim", ActorFromContext(ctx))

	ctx = ContextWithActor(context.Background(), "   ")
	require.Equal(t, DefaultActor, ActorFromContext(ctx))
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 45)
	require.Equal(t, 2, p.Page)
	require.Equal(t, 20, p.PerPage)
	require.Equal(t, 45, p.Total)
	require.Equal(t, 3, p.TotalPages)

	p = NewPagination(0, 0, 0)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 20, p.PerPage)
	require.Zero(t, p.TotalPages)
}
