package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"seatengine/internal/utils"
)

// Logger prints one line per request including request_id.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Float64("latency_ms", float64(latency.Microseconds())/1000.0),
			zap.String("ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		log := utils.Logger()
		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("[HTTP]", fields...)
		case status >= 400:
			log.Warn("[HTTP]", fields...)
		default:
			log.Info("[HTTP]", fields...)
		}
	}
}
