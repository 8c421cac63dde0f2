package api

import (
	"net/http"
	"time"

	"github.com/cert-roster-api/internal/config"
	"github.com/cert-roster-api/internal/service"
	"github.com/cert-roster-api/internal/workflow"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, sessions *workflow.Manager, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	rosterHandler := NewRosterHandler(services, sessions, cfg, log)
	emailHandler := NewEmailHandler(services, log)

	// Health check
	router.GET("/health", healthCheck)

	// API v1
	v1 := router.Group("/v1")
	{
		rosters := v1.Group("/rosters")
		{
			rosters.POST("", rosterHandler.UploadRoster)
			rosters.GET("/:roster_id", rosterHandler.GetRoster)
			rosters.GET("/:roster_id/errors", rosterHandler.GetRosterErrors)
		}

		sessionRoutes := v1.Group("/sessions")
		{
			sessionRoutes.GET("/:session_id", rosterHandler.GetSession)
			sessionRoutes.POST("/:session_id/submit", rosterHandler.SubmitRoster)
			sessionRoutes.POST("/:session_id/reset", rosterHandler.ResetSession)
		}

		v1.GET("/courses", rosterHandler.ListCourses)
		v1.GET("/locations", rosterHandler.ListLocations)

		emails := v1.Group("/email-batches")
		{
			emails.POST("", emailHandler.StartBatch)
			emails.GET("/:batch_id", emailHandler.GetBatch)
			emails.POST("/:batch_id/certificates/:certificate_id/retry", emailHandler.RetryCertificate)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "cert-roster-api",
	})
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
