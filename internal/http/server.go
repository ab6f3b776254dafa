// Package http provides the VitaNote REST API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wosledon/vitanote/internal/logging"
	"github.com/wosledon/vitanote/internal/services"
	"github.com/wosledon/vitanote/pkg/auth"
)

// Config holds HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	BodyLimit       string
	CORSOrigins     []string
	// TrustedProxies are IPs or CIDR ranges allowed to set X-Forwarded-For.
	TrustedProxies []string
	ServiceName    string
	Version        string

	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int
}

// Server serves the VitaNote API.
type Server struct {
	echo     *echo.Echo
	services services.Registry
	logger   *zap.Logger
	config   *Config
	metrics  *DomainMetrics
	limiter  *ipLimiter
}

// NewServer creates a new HTTP server.
func NewServer(reg services.Registry, logger *zap.Logger, cfg *Config) (*Server, error) {
	if reg == nil {
		return nil, errors.New("service registry cannot be nil")
	}
	if reg.Tokens() == nil {
		return nil, errors.New("token issuer is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 5080}
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "vitanote"
	}

	extractor, err := ipExtractor(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = extractor

	s := &Server{
		echo:     e,
		services: reg,
		logger:   logger,
		config:   cfg,
		metrics:  NewDomainMetrics(),
	}
	if cfg.RateLimitEnabled && cfg.RateLimitRPS > 0 {
		s.limiter = newIPLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger())
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
		}))
	}
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	s.registerRoutes()
	return s, nil
}

// requestLogger logs one line per request and seeds the request context
// with the request ID for downstream loggers.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), reqID)))

			err := next(c)

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", reqID),
			}
			if uid := auth.UserID(c); uid != "" {
				fields = append(fields, zap.String("user_id", uid))
			}
			s.logger.Info("http request", fields...)
			return err
		}
	}
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api/v1")

	authGroup := api.Group("/auth")
	if s.limiter != nil {
		authGroup.Use(s.limiter.middleware())
	}
	authGroup.POST("/register", s.handleRegister)
	authGroup.POST("/login", s.handleLogin)

	protected := api.Group("", auth.Middleware(s.services.Tokens()))

	protected.GET("/users/me", s.handleGetMe)
	protected.PUT("/users/me", s.handleUpdateMe)
	protected.POST("/users/me/password", s.handleChangePassword)

	s.registerRecordRoutes(protected)

	protected.GET("/foods", s.handleListFoods)
	protected.POST("/foods", s.handleCreateFood)
	protected.GET("/foods/:id", s.handleGetFood)
	protected.PUT("/foods/:id", s.handleUpdateFood)
	protected.DELETE("/foods/:id", s.handleDeleteFood)

	protected.GET("/medications", s.handleListMedications)
	protected.POST("/medications", s.handleCreateMedication)
	protected.GET("/medications/:id", s.handleGetMedication)
	protected.PUT("/medications/:id", s.handleUpdateMedication)
	protected.DELETE("/medications/:id", s.handleDeleteMedication)

	stats := protected.Group("/statistics")
	stats.GET("/overview", s.handleOverview)
	stats.GET("/glucose", s.handleGlucoseStats)
	stats.GET("/blood-pressure", s.handleBloodPressureStats)
	stats.GET("/weight", s.handleWeightStats)
	stats.GET("/food", s.handleFoodStats)
	stats.GET("/medications", s.handleMedicationStats)
	stats.GET("/daily", s.handleDaily)

	protected.GET("/chat/messages", s.handleChatHistory)
	protected.POST("/chat/messages", s.handleChatSend)
	protected.DELETE("/chat/messages", s.handleChatClear)
}

// handleHealth reports liveness and database reachability.
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{
		Status:  "ok",
		Service: s.config.ServiceName,
		Version: s.config.Version,
	}
	if db := s.services.Database(); db != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			s.logger.Warn("health check: database unreachable", zap.Error(err))
			resp.Status = "unavailable"
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Echo returns the underlying Echo instance for registering additional routes.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start serves until ctx is cancelled, then shuts down gracefully within the
// configured timeout. A clean shutdown returns nil.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", zap.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
