package api

import (
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"socialsaver/internal/metrics"
)

const requestIDKey = "request_id"

// RequestIDMiddleware adds a unique request ID to each request context.
// The ID is either taken from X-Request-ID header or generated.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()
	}
}

// LoggerMiddleware logs one line per request with method, path, status,
// duration and client IP.
func LoggerMiddleware(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"client_ip":  c.ClientIP(),
			"request_id": c.GetString(requestIDKey),
		})
		if query := c.Request.URL.RawQuery; query != "" {
			entry = entry.WithField("query", query)
		}

		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Error("HTTP request with errors")
			return
		}
		if strings.HasSuffix(path, "/health") {
			entry.Debug("HTTP request")
			return
		}
		entry.Info("HTTP request")
	}
}

// RecoveryMiddleware turns a panic into a logged 500 with a generic detail.
func RecoveryMiddleware(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.WithFields(logrus.Fields{
					"error":      err,
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
					"request_id": c.GetString(requestIDKey),
				}).Error("Panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
			}
		}()

		c.Next()
	}
}

// localOrigin matches a dashboard served from localhost on any port.
var localOrigin = regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1)(:\d+)?$`)

const corsMaxAge = 12 * time.Hour

// CORSMiddleware allows the configured origins plus any local dev server.
// A "*" entry opens the API to every origin.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept",
			"Authorization", "X-Requested-With", "X-Request-ID",
		},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	}
	if slices.Contains(allowedOrigins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowOriginFunc = localOrigin.MatchString
	}
	return cors.New(cfg)
}

// MetricsMiddleware records request counts and latency by matched route.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
