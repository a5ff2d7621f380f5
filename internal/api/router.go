package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

// NewRouter wires up all routes. Every route except the health probe sits
// behind the auth middleware.
func NewRouter(jwtSecret string, docs *DocumentHandler, chat *ChatHandler, checks map[string]HealthCheck) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", healthHandler(checks))

	v1 := r.Group("/api/v1")
	v1.Use(AuthMiddleware(jwtSecret))
	{
		v1.POST("/documents", RequireWriter(), docs.Upload)
		v1.POST("/documents/url", RequireWriter(), docs.RegisterURL)
		v1.GET("/documents", docs.List)
		v1.GET("/documents/:id", docs.Get)
		v1.POST("/documents/:id/reingest", RequireWriter(), docs.Reingest)
		v1.DELETE("/documents/:id", RequireWriter(), docs.Delete)

		v1.POST("/chat", chat.Chat)
	}

	return r
}

// healthHandler runs every registered probe with a short deadline and
// reports per-service status.
func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		services := make(gin.H, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				services[name] = err.Error()
				status = http.StatusServiceUnavailable
			} else {
				services[name] = "ok"
			}
		}
		c.JSON(status, gin.H{"services": services})
	}
}
