package server

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/perspectize-backend/internal/conf"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/metrics"
	"go.uber.org/zap"
)

// RouteRegistrar mounts a service under /api/v1
type RouteRegistrar interface {
	RegisterRoutes(r *gin.RouterGroup)
}

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

type HTTPServer struct {
	server *http.Server
	logger *logger.Logger
	router *gin.Engine
}

func NewHTTPServer(
	config *conf.Config,
	log *logger.Logger,
	checks map[string]HealthCheck,
	m *metrics.Metrics,
	services ...RouteRegistrar,
) *HTTPServer {
	if config.Server.Mode != "" {
		gin.SetMode(config.Server.Mode)
	}

	router := gin.New()
	router.Use(logger.GinRecovery(log))
	router.Use(logger.GinLogger(log, logger.MiddlewareOptions{
		SkipPaths: []string{"/health", config.Metrics.Path},
	}))

	router.GET("/health", healthHandler(checks))
	if config.Metrics.Enabled && m != nil {
		router.GET(config.Metrics.Path, gin.WrapH(m.Handler()))
	}

	api := router.Group("/api/v1")
	for _, svc := range services {
		svc.RegisterRoutes(api)
	}

	return &HTTPServer{
		server: &http.Server{
			Addr:         config.Server.Addr(),
			Handler:      router,
			ReadTimeout:  config.Server.ReadTimeout,
			WriteTimeout: config.Server.WriteTimeout,
		},
		logger: log,
		router: router,
	}
}

// Handler exposes the router
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// healthHandler answers 200 when every check passes and 503 otherwise
func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(gin.H, len(names))
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				status = http.StatusServiceUnavailable
				deps[name] = err.Error()
				continue
			}
			deps[name] = "ok"
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{
			"status":       state,
			"time":         time.Now().Format(time.RFC3339),
			"dependencies": deps,
		})
	}
}
