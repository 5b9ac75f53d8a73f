package middleware

import (
	"time" // Request latency

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// RequestLogger logs one line per request with status and latency
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now() // Start timer
		c.Next()            // Process request
		fields := logrus.Fields{
			"method":  c.Request.Method,           // HTTP method
			"path":    c.FullPath(),               // Route pattern, keeps ids out of the key
			"status":  c.Writer.Status(),          // Response status
			"latency": time.Since(start).String(), // Request duration
			"client":  c.ClientIP(),               // Remote address
		}
		if c.FullPath() == "" {
			fields["path"] = c.Request.URL.Path // Unmatched route
		}
		entry := logrus.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request")
		case c.Writer.Status() >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}
