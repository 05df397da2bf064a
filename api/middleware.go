package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"travel-scout/metrics"
	"travel-scout/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

// RequestIDMiddleware assigns every request an id, reusing the caller's when present
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// LoggerMiddleware logs one line per request and exposes a request-scoped logger to handlers
func LoggerMiddleware(log *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := log.With("request_id", c.GetString(requestIDHeader))
		c.Set(loggerKey, reqLog)

		c.Next()

		status := c.Writer.Status()
		duration := time.Since(start)
		if len(c.Errors) > 0 {
			reqLog.Error("%s %s -> %d (%v): %s", c.Request.Method, c.Request.URL.Path, status, duration, c.Errors.String())
			return
		}
		if strings.HasPrefix(c.Request.URL.Path, "/health") {
			reqLog.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, duration)
			return
		}
		reqLog.Info("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, duration)
	}
}

// CORSMiddleware answers preflight requests and sets CORS headers for allowed origins
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := allowedOrigin(c.GetHeader("Origin"), allowedOrigins)
		if origin == "" {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func allowedOrigin(origin string, allowed []string) string {
	if origin == "" {
		return ""
	}
	for _, a := range allowed {
		if a == "*" {
			return "*"
		}
		if a == origin {
			return origin
		}
	}
	return ""
}

// MetricsMiddleware records request counts and latency by matched route
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// TimeoutMiddleware bounds the request context. Handlers observe the deadline through ctx.
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestLogger(c *gin.Context, fallback *utils.Logger) *utils.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*utils.Logger); ok {
			return l
		}
	}
	return fallback
}
