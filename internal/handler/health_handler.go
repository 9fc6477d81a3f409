package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/pianoteacher/studio-api/pkg/response"
)

// HealthHandler serves the liveness and readiness endpoints.
type HealthHandler struct {
	db      *sqlx.DB
	version string
}

// NewHealthHandler constructs HealthHandler.
func NewHealthHandler(db *sqlx.DB, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// Health godoc
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, nil)
}

// Ready godoc
// @Summary Readiness check
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, response.Envelope{Data: gin.H{"status": "degraded"}})
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "ready"}, nil)
}
