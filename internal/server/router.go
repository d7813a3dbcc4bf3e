package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/virtuos/siddata-backend/internal/handlers"
	"github.com/virtuos/siddata-backend/internal/middleware"
)

type RouterConfig struct {
	AllowedOrigins     []string
	AuthHandler        *handlers.AuthHandler
	AuthMiddleware     *middleware.AuthMiddleware
	StudentHandler     *handlers.StudentHandler
	ActivityHandler    *handlers.ActivityHandler
	RecommenderHandler *handlers.RecommenderHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.POST("/auth/login", cfg.AuthHandler.Login)

	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Student
	protected.GET("/me", cfg.StudentHandler.GetMe)
	protected.PATCH("/me/consent", cfg.StudentHandler.UpdateConsent)
	protected.DELETE("/me", cfg.StudentHandler.DeleteMe)
	protected.GET("/overview", cfg.StudentHandler.GetOverview)
	// Recommenders
	protected.GET("/recommenders", cfg.RecommenderHandler.List)
	protected.PUT("/recommenders/:id/enrollment", cfg.RecommenderHandler.SetEnrollment)
	// Activities
	protected.PATCH("/activities/:id", cfg.ActivityHandler.Update)

	return router
}
