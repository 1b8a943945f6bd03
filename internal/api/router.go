package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/records-api/internal/config"
	"github.com/records-api/internal/service"
	"github.com/rs/zerolog"
)

// serviceName is reported by the health endpoint
const serviceName = "records-api"

// Pinger reports the health of the backing store
type Pinger interface {
	HealthCheck(ctx context.Context) error
	Stats() sql.DBStats
}

// Option configures the router
type Option func(*routerOptions)

type routerOptions struct {
	db Pinger
}

// WithDatabase adds the database to the health and metrics endpoints
func WithDatabase(db Pinger) Option {
	return func(o *routerOptions) { o.db = db }
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger, opts ...Option) *gin.Engine {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	router := gin.New()

	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	employeeHandler := NewEmployeeHandler(services, cfg, log)
	articleHandler := NewArticleHandler(services, cfg, log)
	importHandler := NewImportHandler(services, cfg, log)
	exportHandler := NewExportHandler(services, log)

	router.GET("/health", healthCheck(o.db))
	router.GET("/metrics", metricsHandler(services, o.db, log))

	api := router.Group("/api")
	{
		employees := api.Group("/employees")
		{
			employees.GET("", employeeHandler.List)
			employees.GET("/stats", employeeHandler.Stats)
			employees.GET("/:id", employeeHandler.Get)
			employees.POST("", employeeHandler.Create)
			employees.POST("/bulk", employeeHandler.BulkCreate)
			employees.PUT("/:id", employeeHandler.Update)
			employees.DELETE("/bulk/:ids", employeeHandler.BulkDelete)
			employees.DELETE("/:id", employeeHandler.Delete)
		}

		articles := api.Group("/articles")
		{
			articles.GET("", articleHandler.List)
			articles.GET("/stats", articleHandler.Stats)
			articles.GET("/:id", articleHandler.Get)
			articles.POST("", articleHandler.Create)
			articles.POST("/bulk", articleHandler.BulkCreate)
			articles.PUT("/:id", articleHandler.Update)
			articles.DELETE("/bulk/:ids", articleHandler.BulkDelete)
			articles.DELETE("/:id", articleHandler.Delete)
		}

		api.GET("/exports", exportHandler.StreamExport)

		imports := api.Group("/imports")
		{
			imports.POST("", importHandler.CreateImport)
			imports.GET("/:job_id", importHandler.GetImportStatus)
			imports.GET("/:job_id/errors", importHandler.GetImportErrors)
		}
	}

	return router
}

// healthCheck returns the health status; an unreachable database makes it 503
func healthCheck(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   serviceName,
		}
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.HealthCheck(ctx); err != nil {
				body["status"] = "unhealthy"
				body["database"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
			body["database"] = "up"
		}
		c.JSON(http.StatusOK, body)
	}
}

// metricsHandler reports record counts and connection pool usage
func metricsHandler(services *service.Services, db Pinger, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		database := gin.H{}
		if employees, err := services.Employee.Stats(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to count employees")
		} else {
			database["employees"] = employees.TotalEmployees
		}
		if articles, err := services.Article.Stats(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to count articles")
		} else {
			database["articles"] = articles.Overview.TotalArticles
		}

		body := gin.H{
			"database":  database,
			"timestamp": time.Now().Format(time.RFC3339),
		}
		if db != nil {
			stats := db.Stats()
			body["pool"] = gin.H{
				"open":       stats.OpenConnections,
				"in_use":     stats.InUse,
				"idle":       stats.Idle,
				"wait_count": stats.WaitCount,
			}
		}
		c.JSON(http.StatusOK, body)
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

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", c.Request.URL.RawQuery).
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
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Idempotency-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// contextWithTimeout derives the handler context; a non-positive timeout means none
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}
