package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/config"
	"github.com/social-blog-api/internal/service"
)

// HealthChecker reports whether a backing dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router. db may be nil.
func NewRouter(services *service.Services, cfg *config.Config, db HealthChecker, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Storage.MaxUploadSize

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(sessionMiddleware(services.Auth, cfg.Auth.CookieName, log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	feedHandler := NewFeedHandler(services, log)
	postHandler := NewPostHandler(services, log)
	followHandler := NewFollowHandler(services, log)
	groupHandler := NewGroupHandler(services, log)
	authHandler := NewAuthHandler(services, &cfg.Auth, log)
	exportHandler := NewExportHandler(services, log)

	// Health check
	router.GET("/health", healthHandler(db, log))
	router.GET("/metrics", metricsHandler(services, log))

	// Uploaded images, when kept on local disk
	if prefix := localMediaPrefix(&cfg.Storage); prefix != "" {
		router.Static(prefix, cfg.Storage.UploadDir)
	}

	// API v1
	v1 := router.Group("/v1")
	{
		posts := v1.Group("/posts")
		{
			posts.GET("", feedHandler.Index)
			posts.POST("", requireAuth(), postHandler.Create)
		}

		v1.GET("/follow", requireAuth(), feedHandler.Followed)

		groups := v1.Group("/groups")
		{
			groups.GET("", groupHandler.List)
			groups.POST("", requireAuth(), groupHandler.Create)
			groups.GET("/:slug/posts", feedHandler.Group)
			groups.DELETE("/:slug", requireAuth(), groupHandler.Delete)
		}

		users := v1.Group("/users/:username")
		{
			users.GET("/posts", feedHandler.Profile)
			users.GET("/posts/:post_id", postHandler.View)
			users.PUT("/posts/:post_id", requireAuth(), postHandler.Edit)
			users.DELETE("/posts/:post_id", requireAuth(), postHandler.Delete)
			users.POST("/posts/:post_id/comments", requireAuth(), postHandler.AddComment)
			users.POST("/follow", requireAuth(), followHandler.Follow)
			users.POST("/unfollow", requireAuth(), followHandler.Unfollow)
		}

		auth := v1.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.GET("/login", authHandler.LoginPage)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
		}

		exports := v1.Group("/exports")
		{
			exports.GET("", requireAuth(), exportHandler.StreamExport)
		}
	}

	return router
}

// localMediaPrefix returns the URL path to serve local uploads under, or ""
// when images are not served by this process.
func localMediaPrefix(cfg *config.StorageConfig) string {
	if cfg.Backend != "" && cfg.Backend != "local" {
		return ""
	}
	if !strings.HasPrefix(cfg.MediaURL, "/") || strings.HasPrefix(cfg.MediaURL, "//") {
		return ""
	}
	prefix := strings.TrimSuffix(cfg.MediaURL, "/")
	if prefix == "" {
		return ""
	}
	return prefix
}

// healthHandler returns the health status, including database reachability
func healthHandler(db HealthChecker, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if db != nil {
			if err := db.HealthCheck(c.Request.Context()); err != nil {
				log.Error().Err(err).Msg("Database health check failed")
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "social-blog-api",
		})
	}
}

// metricsHandler returns row counts per table
func metricsHandler(services *service.Services, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := services.Export.Counts(c.Request.Context())
		if err != nil {
			log.Error().Err(err).Msg("Failed to collect metrics")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"database":  counts,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
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

		username := "guest"
		if user := currentUser(c); user != nil {
			username = user.Username
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("user", username).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
