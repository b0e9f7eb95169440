package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookwise/bookchat/internal/chatbot/biz"
)

// HealthHandler serves the health endpoint.
type HealthHandler struct {
	health *biz.HealthUsecase
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(health *biz.HealthUsecase) *HealthHandler {
	return &HealthHandler{health: health}
}

// HealthResponse reports overall status plus per-dependency connectivity.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Dependencies map[string]string `json:"dependencies"`
}

// Check handles GET /api/v1/health.
func (h *HealthHandler) Check(c *gin.Context) {
	status := h.health.Check(c.Request.Context())

	overall := "healthy"
	if !status.Healthy {
		overall = "unhealthy"
	}

	c.JSON(http.StatusOK, &HealthResponse{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Dependencies: map[string]string{
			"postgres": status.Database,
			"milvus":   status.Milvus,
			"llm":      status.LLM,
		},
	})
}
