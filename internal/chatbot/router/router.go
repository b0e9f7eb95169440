// Package router wires the chatbot HTTP routes onto a gin engine.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/kart-io/version"

	"github.com/bookwise/bookchat/internal/chatbot/handler"
	serveropts "github.com/bookwise/bookchat/pkg/options/server"
)

// Handlers bundles the route handlers.
type Handlers struct {
	Chat    *handler.ChatHandler
	Session *handler.SessionHandler
	Health  *handler.HealthHandler
	Query   *handler.QueryHandler
}

// New builds the gin engine with all chatbot routes registered.
func New(opts *serveropts.Options, h *Handlers) *gin.Engine {
	gin.SetMode(opts.Mode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware(opts.CORSOrigins))

	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "bookchat",
			"version": version.Get().GitVersion,
			"docs":    "/api/v1/health",
		})
	})

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/chat", h.Chat.Chat)

		v1.POST("/sessions", h.Session.Create)
		v1.GET("/sessions/:id", h.Session.Get)
		v1.GET("/sessions/:id/messages", h.Session.Messages)
		v1.DELETE("/sessions/:id", h.Session.Delete)

		v1.GET("/health", h.Health.Check)
	}

	// Legacy flat query contract, kept for older clients.
	engine.POST("/api/chatbot/query", h.Query.Query)

	logger.Info("HTTP routes registered")
	return engine
}

// corsMiddleware applies a permissive CORS policy over the configured
// origins. Origins of ["*"] allow everything.
func corsMiddleware(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 0
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAll {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if _, ok := allowed[origin]; ok {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
