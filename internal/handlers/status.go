package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Credentials reports the masked state of the provider credential pool.
func (h *Handler) Credentials(c *gin.Context) {
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    h.Selector.Snapshot(),
	})
}

// Health is the liveness endpoint.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"credentials": h.Selector.Snapshot().PoolSize,
		"active_runs": len(h.Hub.ActiveRuns()),
		"subscribers": h.Hub.ClientCount(),
		"time":        time.Now().UTC(),
	})
}

// Docs describes the API surface.
func (h *Handler) Docs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "Sitesmith API",
		"version":     "1.0.0",
		"description": "Generative website builder: one prompt in, a complete static site out",
		"endpoints": gin.H{
			"generation": []string{
				"POST /api/v1/generate - Generate a full website from a prompt",
				"GET /api/v1/ws/progress/:run_id - Stream generation progress over websocket",
			},
			"operations": []string{
				"GET /api/v1/credentials - Masked provider credential pool state",
				"GET /health - Liveness probe",
				"GET /metrics - Prometheus metrics (when ENABLE_METRICS=true)",
			},
		},
	})
}
