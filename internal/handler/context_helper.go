package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// contextWithTimeout derives a bounded context from the request context.
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}
