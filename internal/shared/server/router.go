package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartcs-backend/internal/analyses"
	"smartcs-backend/internal/services/health"
	"smartcs-backend/internal/shared/config"
	"smartcs-backend/internal/shared/metrics"
	"smartcs-backend/internal/shared/server/middleware"
	"smartcs-backend/internal/shared/server/respond"
)

// MaxBodyBytes bounds request bodies; crop photos arrive inline as base64.
const MaxBodyBytes = 10 << 20

// RouterDeps are the handlers the router mounts.
type RouterDeps struct {
	Config          config.Config
	AnalysisHandler *analyses.Handler
	Health          *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.BodyLimit(MaxBodyBytes),
	)

	r.GET("/metrics", metrics.Handler())
	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		respond.OK(c, deps.Health.Status())
	})
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
