package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"scope-service/internal/config"
)

// Router wires the device manager into gin's routing tree.
//
// Grounded on device-service/internal/routes/routes.go's Router
// struct and SetupRouter/addMiddleware/addRoutes shape, trimmed of the
// documentation/database/repository-layer dependencies that file's
// Router also carries.
type Router struct {
	cfg     *config.Config
	logger  *zap.Logger
	manager *Manager
}

func NewRouter(cfg *config.Config, logger *zap.Logger, manager *Manager) *Router {
	return &Router{cfg: cfg, logger: logger, manager: manager}
}

// SetupRouter builds the gin engine: mode selection, middleware chain,
// then every route group.
func (r *Router) SetupRouter() *gin.Engine {
	if r.cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	r.addMiddleware(engine)
	r.addRoutes(engine)
	return engine
}

func (r *Router) addMiddleware(engine *gin.Engine) {
	engine.Use(RecoveryMiddleware(r.logger))
	engine.Use(RequestIDMiddleware())
	engine.Use(LoggingMiddleware(r.logger))
	engine.Use(CORSMiddleware(&r.cfg.Server))
}

func (r *Router) addRoutes(engine *gin.Engine) {
	r.addHealthRoutes(engine)

	v1 := engine.Group("/api/v1")
	NewDeviceHandler(r.manager, r.logger).RegisterRoutes(v1)
	NewParameterHandler(r.manager, r.logger).RegisterRoutes(v1)
	NewDiscoveryHandler(r.logger).RegisterRoutes(v1)

	NewWebSocketHandler(r.manager, r.logger).RegisterRoutes(engine)
}

func (r *Router) addHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		Success(c, http.StatusOK, "ok", gin.H{"app": r.cfg.App.Name, "version": r.cfg.App.Version})
	})
	engine.GET("/ready", func(c *gin.Context) {
		Success(c, http.StatusOK, "ready", nil)
	})
}
