package auth

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/labour-connect/internal/domain/user"
	"github.com/khoahotran/labour-connect/pkg/apperror"
	"github.com/khoahotran/labour-connect/pkg/auth"
	"github.com/khoahotran/labour-connect/pkg/logger"
)

const minPasswordLength = 6

type SignUpUseCase struct {
	userRepo user.Repository
	jwtSvc   *auth.JWTService
	logger   logger.Logger
}

func NewSignUpUseCase(repo user.Repository, jwtSvc *auth.JWTService, log logger.Logger) *SignUpUseCase {
	return &SignUpUseCase{userRepo: repo, jwtSvc: jwtSvc, logger: log}
}

type SignUpInput struct {
	Email    string
	Password string
}

// Execute registers the account and signs it in straight away.
func (uc *SignUpUseCase) Execute(ctx context.Context, input SignUpInput) (*LoginOutput, error) {
	ctx, span := tracer.Start(ctx, "SignUp")
	defer span.End()

	email := normalizeEmail(input.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.NewInvalidInput("email address is badly formatted", err)
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperror.NewInvalidInput("password should be at least 6 characters", nil)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal("failed to hash password", err)
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.userRepo.Create(ctx, u); err != nil {
		span.RecordError(err)
		if errors.Is(err, user.ErrEmailDuplicate) {
			return nil, apperror.NewConflict("user", "email", email)
		}
		return nil, err
	}

	token, err := uc.jwtSvc.GenerateToken(u.ID)
	if err != nil {
		return nil, apperror.NewInternal("failed to generate token", err)
	}

	uc.logger.Info("User signed up", zap.String("user_id", u.ID.String()))
	return &LoginOutput{UserID: u.ID.String(), AccessToken: token}, nil
}
