package auth

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

type Principal struct {
	UserID  uuid.UUID
	TokenID string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	if !ok || p.UserID == uuid.Nil {
		return Principal{}, false
	}
	return p, true
}

// ContextIdentity resolves the signed-in user from the request context
// populated by the HTTP auth middleware.
type ContextIdentity struct{}

func (ContextIdentity) CurrentUser(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return "", false
	}
	return p.UserID.String(), true
}
