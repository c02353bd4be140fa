package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/RoqueChristian/inventario/internal/server/handlers"
)

// Metrics is the registry the engine records request metrics into and
// serves on /metrics.
type Metrics interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// New wires the Gin engine with required routes and middlewares. A nil
// registry disables /metrics.
func New(handler *handlers.DashboardHandler, registry Metrics, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	if registry != nil {
		requests := prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventario_http_requests_total",
			Help: "HTTP requests served, by route and status.",
		}, []string{"method", "route", "status"})
		if err := registry.Register(requests); err != nil {
			return nil, err
		}
		r.Use(metricsMiddleware(requests))
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	r.SetHTMLTemplate(handlers.Templates())

	r.GET("/", handler.Page)

	api := r.Group("/api")
	api.GET("/branches", handler.Branches)
	api.GET("/dashboard", handler.Dashboard)
	api.GET("/digest", handler.Digest)
	api.POST("/digest/send", handler.SendDigest)
	api.GET("/export.xlsx", handler.Export)
	api.GET("/snapshots", handler.Snapshots)
	api.POST("/cache/invalidate", handler.InvalidateCache)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r, nil
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

func metricsMiddleware(requests *prometheus.CounterVec) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
