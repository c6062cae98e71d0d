package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"circulation-backend/internal/shared/middleware"
	"circulation-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupIdentifierRoutes(v1, c)
		setupPoolRoutes(v1, c)
		setupWorkRoutes(v1, c)
	}

	return router
}

func setupIdentifierRoutes(v1 *gin.RouterGroup, c *container.Container) {
	identifiers := v1.Group("/identifiers")
	{
		identifiers.POST("", c.IdentifierHandler.LookupIdentifier)
		identifiers.GET("/:id/equivalents", c.IdentifierHandler.GetEquivalents)
	}

	// Equivalency assertions rewrite the graph; metadata clients only.
	admin := v1.Group("/identifiers")
	admin.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		admin.POST("/:id/equivalencies", c.IdentifierHandler.AssertEquivalency)
	}
}

func setupPoolRoutes(v1 *gin.RouterGroup, c *container.Container) {
	pools := v1.Group("/pools")
	{
		pools.GET("/:id", c.LicensePoolHandler.GetPool)
		pools.GET("/:id/events", c.LicensePoolHandler.GetEvents)
	}

	admin := v1.Group("/pools")
	admin.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		admin.POST("/:id/availability", c.LicensePoolHandler.UpdateAvailability)
		admin.POST("/:id/calculate-work", c.LicensePoolHandler.CalculateWork)
	}
}

func setupWorkRoutes(v1 *gin.RouterGroup, c *container.Container) {
	works := v1.Group("/works")
	{
		works.GET("/:id", c.WorkHandler.GetWork)
	}

	admin := v1.Group("/works")
	admin.Use(middleware.AuthMiddleware(c.JWTManager), middleware.AdminMiddleware())
	{
		admin.POST("/:id/recalculate", c.WorkHandler.RecalculatePresentation)
		admin.POST("/:id/merge", c.WorkHandler.MergeWork)
	}
}

func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status := http.StatusOK
		dbStatus := "up"
		if err := c.DB.HealthCheck(ctx.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "down"
		}

		cacheStatus := "up"
		if err := c.Cache.Ping(ctx.Request.Context()); err != nil {
			cacheStatus = "degraded"
		}

		ctx.JSON(status, gin.H{
			"service":  c.Config.App.Name,
			"version":  c.Config.App.Version,
			"database": dbStatus,
			"cache":    cacheStatus,
		})
	}
}
