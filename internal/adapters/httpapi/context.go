package httpapi

import (
	"context"

	"github.com/mzumbe-ict-club/membership-api/internal/domain"
)

type actorKey struct{}

// WithActor stores the authenticated member on the request context.
func WithActor(ctx context.Context, m domain.Member) context.Context {
	return context.WithValue(ctx, actorKey{}, m)
}

// ActorFromContext returns the authenticated member, if any.
func ActorFromContext(ctx context.Context) (domain.Member, bool) {
	m, ok := ctx.Value(actorKey{}).(domain.Member)
	return m, ok && m.ID != ""
}
