package auth

import (
	"context"

	"go.uber.org/zap"

	"github.com/khoahotran/labour-connect/internal/application/service"
	"github.com/khoahotran/labour-connect/pkg/apperror"
	"github.com/khoahotran/labour-connect/pkg/auth"
	"github.com/khoahotran/labour-connect/pkg/logger"
)

type SignOutUseCase struct {
	revoker service.TokenRevoker
	jwtSvc  *auth.JWTService
	logger  logger.Logger
}

func NewSignOutUseCase(revoker service.TokenRevoker, jwtSvc *auth.JWTService, log logger.Logger) *SignOutUseCase {
	return &SignOutUseCase{revoker: revoker, jwtSvc: jwtSvc, logger: log}
}

// Execute revokes the bearer token for the rest of its lifetime.
func (uc *SignOutUseCase) Execute(ctx context.Context, token string) error {
	claims, err := uc.jwtSvc.ValidateToken(token)
	if err != nil {
		return apperror.NewUnauthorized("invalid or expired token", err)
	}

	ttl := uc.jwtSvc.RemainingLifetime(claims)
	if ttl <= 0 {
		return nil
	}
	if err := uc.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return apperror.NewInternal("failed to revoke token", err)
	}

	uc.logger.Info("User signed out", zap.String("user_id", claims.UserID.String()))
	return nil
}
