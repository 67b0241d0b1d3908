// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"project-schedule-api/internal/config"
	"project-schedule-api/internal/interfaces/http/handler"
	"project-schedule-api/internal/interfaces/http/middleware"
)

// Handlers 路由依赖的处理器
type Handlers struct {
	Health *handler.HealthHandler
	Data   *handler.DataHandler
	Static *handler.StaticHandler
	// Resources 关系型存储下的实体 REST 接口，文件存储时为空
	Resources []handler.Registrar
	// Limiter 为空时不对写入限流
	Limiter middleware.RateLimiter
	// LimitKey 限流键，为空时按客户端 IP
	LimitKey func(c *gin.Context) string
}

// Router HTTP 路由器
type Router struct {
	engine *gin.Engine
	cfg    *config.Config
	h      Handlers
}

// New 创建路由器
func New(cfg *config.Config, h Handlers) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	r := &Router{engine: engine, cfg: cfg, h: h}
	r.setupMiddleware()
	r.setupRoutes()
	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestContext())

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}
}

func (r *Router) setupRoutes() {
	if r.h.Health != nil {
		r.engine.GET("/health", r.h.Health.Health)
		r.engine.GET("/ready", r.h.Health.Ready)
		r.engine.GET("/live", r.h.Health.Live)
	}

	if r.cfg.Observability.Metrics.Enabled {
		path := r.cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	limit := middleware.RateLimit(middleware.RateLimitConfig{
		Enabled: r.cfg.Security.RateLimit.Enabled,
		Limit:   r.cfg.Security.RateLimit.Writes,
		Window:  r.cfg.Security.RateLimit.Window,
		Key:     r.h.LimitKey,
	}, r.h.Limiter)

	data := r.engine.Group(middleware.DataPath, middleware.DataCORS())
	{
		data.GET("", r.h.Data.Get)
		data.POST("", limit, r.h.Data.Post)
		data.OPTIONS("", func(c *gin.Context) {})
	}

	if len(r.h.Resources) > 0 {
		v1 := r.engine.Group(middleware.ResourcePrefix, middleware.CORS(middleware.CORSConfig{
			AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
			AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
			AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
			MaxAge:         r.cfg.Security.CORS.MaxAge,
		}), limit)
		for _, res := range r.h.Resources {
			res.Register(v1)
		}
	}

	r.engine.NoMethod(handler.MethodNotAllowed)
	if r.h.Static != nil {
		r.engine.NoRoute(r.h.Static.Serve)
	}
}
