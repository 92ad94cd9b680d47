package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smartcs-backend/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log line.
const (
	CropTypeKey = "cropType"
	DegradedKey = "degradedStages"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
			"crop_type":   c.GetString(CropTypeKey),
		}
		if degraded, ok := c.Get(DegradedKey); ok {
			fields["degraded_stages"] = degraded
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		telemetry.Info("request.complete", fields)
	}
}
