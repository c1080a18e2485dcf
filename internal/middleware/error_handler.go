package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/jmoris/STPark-sub000/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ErrorHandler converts errors attached to the gin context into the JSON
// error envelope. Handlers call c.Error(err) and return; mapping to HTTP
// status happens in one place.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := apierror.Status(err)

		body := gin.H{"error": err.Error()}
		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) {
			body = gin.H{"error": apiErr.Detail, "code": apiErr.Code}
		}
		var valErr *apierror.ValidationError
		if errors.As(err, &valErr) {
			body = gin.H{"error": valErr.Detail, "code": valErr.Code, "fields": valErr.Fields}
		}

		if status >= http.StatusInternalServerError {
			log.Error().Err(err).
				Str("path", c.Request.URL.Path).
				Str("request_id", c.GetString(RequestIDKey)).
				Msg("request failed")
		}
		c.JSON(status, body)
	}
}

// Recovery turns panics into 500s with a structured log instead of a crash.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString(RequestIDKey)).
			Msg("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}

// Logger emits one structured access log line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("request_id", c.GetString(RequestIDKey)).
			Msg("request")
	}
}
