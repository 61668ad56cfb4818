// Package apiserver is C16's read-only HTTP status surface: health,
// metrics, and a narrow admin API guarded by a bcrypt operator token and
// short-lived JWTs. Adapted from the teacher's internal/api.Server,
// trimmed from a full trading REST API down to observability plus a
// handful of operational controls appropriate for a read-only pipeline.
package apiserver

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"signalengine/config"
	"signalengine/internal/circuit"
	"signalengine/internal/logging"
)

// RateLimiter is a simple in-memory per-endpoint limiter.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{requests: make(map[string][]time.Time), limit: limit, window: window}
}

func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-r.window)

	var recent []time.Time
	for _, t := range r.requests[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

// StatusSource exposes read-only engine state for /api/status.
type StatusSource interface {
	SymbolsTracked() []string
	TimeframesTracked() []string
}

// Server is the gin-based status/metrics/admin HTTP surface.
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	cfg         config.APIServerConfig
	metrics     *Metrics
	recent      *RecentSignals
	breaker     *circuit.Breaker
	status      StatusSource
	rateLimiter *RateLimiter
	log         *logging.Logger
}

func NewServer(cfg config.APIServerConfig, metrics *Metrics, recent *RecentSignals, breaker *circuit.Breaker, status StatusSource, log *logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.AllowedOrigins != "" {
		corsConfig.AllowOrigins = []string{cfg.AllowedOrigins}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	s := &Server{
		router:      router,
		cfg:         cfg,
		metrics:     metrics,
		recent:      recent,
		breaker:     breaker,
		status:      status,
		rateLimiter: NewRateLimiter(120, time.Minute),
		log:         log.WithComponent("apiserver"),
	}

	s.setupRoutes()
	return s
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if !s.rateLimiter.Allow(path) {
			errorResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) setupRoutes() {
	s.router.Use(s.rateLimitMiddleware())

	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))
	s.router.GET("/api/status", s.handleStatus)
	s.router.GET("/signals/recent", s.handleRecentSignals)

	s.router.POST("/api/auth/login", s.handleLogin)

	admin := s.router.Group("/api/admin")
	admin.Use(s.authMiddleware())
	{
		admin.GET("/circuit-breaker/status", s.handleCircuitBreakerStatus)
		admin.POST("/circuit-breaker/reset", s.handleCircuitBreakerReset)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (s *Server) handleStatus(c *gin.Context) {
	body := gin.H{}
	if s.status != nil {
		body["symbols"] = s.status.SymbolsTracked()
		body["timeframes"] = s.status.TimeframesTracked()
	}
	if s.breaker != nil {
		body["circuit_breaker_state"] = s.breaker.State()
	}
	successResponse(c, body)
}

func (s *Server) handleRecentSignals(c *gin.Context) {
	if s.recent == nil {
		successResponse(c, []RecentSignalView{})
		return
	}
	successResponse(c, s.recent.List())
}

func (s *Server) handleCircuitBreakerStatus(c *gin.Context) {
	if s.breaker == nil {
		errorResponse(c, http.StatusNotFound, "no circuit breaker configured")
		return
	}
	successResponse(c, gin.H{"state": s.breaker.State()})
}

func (s *Server) handleCircuitBreakerReset(c *gin.Context) {
	if s.breaker == nil {
		errorResponse(c, http.StatusNotFound, "no circuit breaker configured")
		return
	}
	s.breaker.ForceReset()
	s.log.Info("circuit breaker force-reset via admin API")
	successResponse(c, gin.H{"state": s.breaker.State()})
}

func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port),
		Handler: s.router,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
