package middleware

import (
	"context"

	pkgAuth "github.com/angelmondragon/partshop-backend/pkg/auth"
	"github.com/angelmondragon/partshop-backend/pkg/enums"
)

type principalKey struct{}

// principal is what Auth learns about the caller from the bearer token.
type principal struct {
	actor pkgAuth.Actor
	email string
}

func principalFrom(ctx context.Context) principal {
	if ctx == nil {
		return principal{}
	}
	p, _ := ctx.Value(principalKey{}).(principal)
	return p
}

func withPrincipal(ctx context.Context, p principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey{}, p)
}

func UserIDFromContext(ctx context.Context) uint {
	return principalFrom(ctx).actor.UserID
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	return principalFrom(ctx).actor.Role
}

func EmailFromContext(ctx context.Context) string {
	return principalFrom(ctx).email
}

// ActorFromContext returns the authenticated caller. ok is false when the
// request did not pass through Auth.
func ActorFromContext(ctx context.Context) (pkgAuth.Actor, bool) {
	actor := principalFrom(ctx).actor
	return actor, actor.UserID != 0
}

// WithUserID sets the caller id, keeping any role already present.
func WithUserID(ctx context.Context, userID uint) context.Context {
	p := principalFrom(ctx)
	p.actor.UserID = userID
	return withPrincipal(ctx, p)
}

// WithRole sets the caller role, keeping any id already present.
func WithRole(ctx context.Context, role enums.UserRole) context.Context {
	p := principalFrom(ctx)
	p.actor.Role = role
	return withPrincipal(ctx, p)
}
