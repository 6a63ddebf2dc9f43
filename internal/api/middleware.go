package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"scope-service/internal/config"
)

// RecoveryMiddleware turns a panic into a 500 envelope instead of a
// dropped connection.
//
// Grounded on device-service/internal/middleware/recovery_middleware.go.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Stack("stacktrace"),
		)
		Fail(c, http.StatusInternalServerError, "internal server error", nil)
	})
}

// RequestIDMiddleware stamps every request with an id, generating one
// when the caller didn't supply X-Request-ID.
//
// device-service/internal/routes/routes.go chains a
// middleware.RequestIDMiddleware() ahead of its logging middleware;
// this reproduces that slot with the standard generate-or-passthrough
// shape the request-id field on Response implies.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// LoggingMiddleware logs one line per completed request.
//
// Grounded on device-service/internal/middleware/logging_middleware.go.
func LoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", c.ClientIP()),
		)
	}
}

// CORSMiddleware builds the cross-origin policy from cfg.
//
// The teacher wraps gin-contrib/cors behind a CORSMiddleware(*Security
// Config) function of its own; that indirection earns its keep there
// because SecurityConfig carries JWT/rate-limit fields CORSMiddleware
// reads. This driver's server config has nothing beyond
// AllowedOrigins, so this package calls cors.New directly instead of
// reintroducing a wrapper with nothing left to wrap (see DESIGN.md).
func CORSMiddleware(cfg *config.ServerConfig) gin.HandlerFunc {
	c := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 && cfg.AllowedOrigins[0] != "*" {
		c.AllowOrigins = cfg.AllowedOrigins
	} else {
		c.AllowAllOrigins = true
	}
	c.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-ID"}
	return cors.New(c)
}
