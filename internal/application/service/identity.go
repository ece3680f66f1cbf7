package service

import "context"

// IdentityProvider resolves the signed-in user carried by ctx.
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (userID string, ok bool)
}
