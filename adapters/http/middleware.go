package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/labour-connect/internal/application/service"
	"github.com/khoahotran/labour-connect/pkg/apperror"
	"github.com/khoahotran/labour-connect/pkg/auth"
	"github.com/khoahotran/labour-connect/pkg/logger"
)

const (
	GinContextKeyUserID = "userID"
	GinContextKeyToken  = "accessToken"
)

func AuthMiddleware(jwtSvc *auth.JWTService, revoker service.TokenRevoker, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperror.NewAuthRequired("authorization header is required").ToJSON())
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperror.NewAuthRequired("invalid token format").ToJSON())
			return
		}

		claims, err := jwtSvc.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperror.NewAuthRequired("invalid or expired token").ToJSON())
			return
		}

		revoked, err := revoker.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			log.Error("Failed to check token revocation", err, zap.String("user_id", claims.UserID.String()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, apperror.NewInternal("token check failed", err).ToJSON())
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperror.NewAuthRequired("token has been signed out").ToJSON())
			return
		}

		c.Set(GinContextKeyUserID, claims.UserID)
		c.Set(GinContextKeyToken, tokenString)
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), auth.Principal{
			UserID:  claims.UserID,
			TokenID: claims.ID,
		}))

		c.Next()
	}
}

func GetUserIDFromGinContext(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := c.Get(GinContextKeyUserID)
	if !ok {
		return uuid.Nil, false
	}
	userUUID, ok := userID.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	return userUUID, true
}

// ErrorMiddleware renders the last error a handler pushed with c.Error.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := apperror.ToHTTPStatus(err)

		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.NewInternal("unexpected error", err)
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
		}
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", err, fields...)
		} else {
			log.Warn("Request rejected", append(fields, zap.String("details", appErr.Details))...)
		}

		c.JSON(status, appErr.ToJSON())
	}
}

const headerRequestID = "X-Request-ID"

// RequestLogger tags each request with an id (reusing the caller's
// X-Request-ID when present) and logs it once the handler returns.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(headerRequestID, requestID)

		c.Next()
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if userID, ok := GetUserIDFromGinContext(c); ok {
			fields = append(fields, zap.String("user_id", userID.String()))
		}
		log.Info("HTTP request", fields...)
	}
}
