package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/labour-connect/pkg/logger"
)

func NewRouter(authHandler *AuthHandler, profileHandler *ProfileHandler, authMiddleware gin.HandlerFunc, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log), ErrorMiddleware(log))

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.SignUp)
			authGroup.POST("/signin", authHandler.SignIn)
			authGroup.POST("/signout", authMiddleware, authHandler.SignOut)
		}

		private := api.Group("/")
		private.Use(authMiddleware)
		{
			profile := private.Group("/profile")
			{
				profile.GET("", profileHandler.GetProfile)
				profile.POST("/refresh", profileHandler.RefreshProfile)
				profile.POST("/edit", profileHandler.EditProfile)
				profile.PATCH("/draft", profileHandler.UpdateDraft)
				profile.PUT("/image", profileHandler.SelectImage)
				profile.POST("/cancel", profileHandler.CancelEdit)
				profile.POST("/save", profileHandler.SaveProfile)
				profile.DELETE("", profileHandler.DeleteProfile)
			}
		}
	}

	return router
}
