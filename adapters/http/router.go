package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/devconnector/pkg/auth"
	"github.com/khoahotran/devconnector/pkg/logger"
)

type RouterDeps struct {
	ProfileHandler *ProfileHandler
	GithubHandler  *GithubHandler
	JWTService     *auth.JWTService
	Logger         logger.Logger
	Middlewares    []gin.HandlerFunc
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(deps.Middlewares...)
	router.Use(ErrorMiddleware(deps.Logger))

	authMiddleware := AuthMiddleware(deps.JWTService, deps.Logger)

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })

		profiles := api.Group("/profile")
		{
			// public
			profiles.GET("", deps.ProfileHandler.ListProfiles)
			profiles.GET("/user/:user_id", deps.ProfileHandler.GetProfileByUser)
			profiles.GET("/github/:username", deps.GithubHandler.GetRepositories)

			private := profiles.Group("")
			private.Use(authMiddleware)
			{
				private.GET("/me", deps.ProfileHandler.GetMyProfile)
				private.POST("", deps.ProfileHandler.UpsertProfile)
				private.DELETE("", deps.ProfileHandler.DeleteProfile)
				private.PUT("/experience", deps.ProfileHandler.AddExperience)
				private.DELETE("/experience/:exp_id", deps.ProfileHandler.RemoveExperience)
				private.PUT("/education", deps.ProfileHandler.AddEducation)
				private.DELETE("/education/:edu_id", deps.ProfileHandler.RemoveEducation)
			}
		}
	}

	return router
}
