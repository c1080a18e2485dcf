package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is where the per-request id lives on the gin context.
const RequestIDKey = "request_id"

// RequestID assigns every request an id, honoring an inbound X-Request-ID so
// ids correlate across the mobile app, this service and the gateway sidecar.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}
