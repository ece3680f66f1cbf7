package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/labour-connect/internal/application/usecase/auth"
	profileUC "github.com/khoahotran/labour-connect/internal/application/usecase/profile"
	"github.com/khoahotran/labour-connect/pkg/apperror"
	"github.com/khoahotran/labour-connect/pkg/logger"
)

type AuthHandler struct {
	signUpUseCase  *auth.SignUpUseCase
	loginUseCase   *auth.LoginUseCase
	signOutUseCase *auth.SignOutUseCase
	profileUseCase *profileUC.ProfileUseCase
	logger         logger.Logger
}

func NewAuthHandler(
	signUpUC *auth.SignUpUseCase,
	loginUC *auth.LoginUseCase,
	signOutUC *auth.SignOutUseCase,
	profileUC *profileUC.ProfileUseCase,
	log logger.Logger,
) *AuthHandler {
	return &AuthHandler{
		signUpUseCase:  signUpUC,
		loginUseCase:   loginUC,
		signOutUseCase: signOutUC,
		profileUseCase: profileUC,
		logger:         log,
	}
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("email and password are required", err))
		return
	}

	output, err := h.signUpUseCase.Execute(c.Request.Context(), auth.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, tokenResponse{UserID: output.UserID, AccessToken: output.AccessToken})
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("email and password are required", err))
		return
	}

	output, err := h.loginUseCase.Execute(c.Request.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{UserID: output.UserID, AccessToken: output.AccessToken})
}

// SignOut ends the edit session and revokes the bearer token.
func (h *AuthHandler) SignOut(c *gin.Context) {
	token := c.GetString(GinContextKeyToken)
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}

	if err := h.profileUseCase.Close(c.Request.Context()); err != nil {
		h.logger.Warn("Failed to close edit session on sign out", zap.Error(err))
	}

	if err := h.signOutUseCase.Execute(c.Request.Context(), token); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "signed out"})
}
