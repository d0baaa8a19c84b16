// Package httpapi exposes the report service over HTTP. Validation failures
// map to 400, missing reports to 404, and all pipeline/provider/database
// failures to 500 with a generic message plus the request trace id.
// Provider error text is never echoed to callers.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const traceIDKey = "trace_id"

// Dependencies captures the collaborators for the HTTP layer.
type Dependencies struct {
	Service ReportService
	Reader  ReportReader
	Logger  *zap.Logger
	// Registry backs the /metrics endpoint and the HTTP instruments.
	// Optional; metrics are skipped when nil.
	Registry *prometheus.Registry
}

// Server holds the handler state.
type Server struct {
	service ReportService
	reader  ReportReader
	logger  *zap.Logger
	metrics *httpMetrics
}

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		service: deps.Service,
		reader:  deps.Reader,
		logger:  logger,
	}

	router := gin.New()
	router.Use(s.traceMiddleware(), s.loggingMiddleware(), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if deps.Registry != nil {
		s.metrics = newHTTPMetrics(deps.Registry)
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.POST("/reports", s.createReport)
		api.GET("/reports", s.listReports)
		api.GET("/reports/:id", s.getReport)
	}

	return router
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "path"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// traceMiddleware attaches a request-scoped trace id, honoring an inbound
// X-Request-ID when present.
func (s *Server) traceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Request-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Set(traceIDKey, traceID)
		c.Header("X-Request-ID", traceID)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()

		s.logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("trace_id", c.GetString(traceIDKey)))

		if s.metrics != nil {
			s.metrics.requests.WithLabelValues(c.Request.Method, path, statusLabel(status)).Inc()
			s.metrics.duration.WithLabelValues(c.Request.Method, path).Observe(duration.Seconds())
		}
	}
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
