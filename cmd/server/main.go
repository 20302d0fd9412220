package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/lk2023060901/perspectize-backend/internal/conf"
	contentservice "github.com/lk2023060901/perspectize-backend/internal/content/service"
	"github.com/lk2023060901/perspectize-backend/internal/middleware"
	perspectiveservice "github.com/lk2023060901/perspectize-backend/internal/perspective/service"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/injector"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/lk2023060901/perspectize-backend/internal/server"
	userservice "github.com/lk2023060901/perspectize-backend/internal/user/service"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", conf.DefaultPath, "config file path")
)

func main() {
	flag.Parse()

	// Load configuration
	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&config.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()
	logger.InitGlobal(log)

	log.Info("config loaded successfully", zap.String("path", *configFile))

	app, err := injector.NewApp(context.Background(), config, log)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer app.Cleanup()

	rateLimit := middleware.RateLimiter(app.Data.Redis, config.RateLimit, log)

	// Initialize services
	contentService := contentservice.NewContentService(app.Content, app.Videos, log, rateLimit)
	userService := userservice.NewUserService(app.Users, log)
	perspectiveService := perspectiveservice.NewPerspectiveService(app.Perspectives, log)

	httpServer := server.NewHTTPServer(config, log,
		map[string]server.HealthCheck{
			"database": app.Data.DB.HealthCheck,
			"redis":    app.Data.Redis.Ping,
		},
		app.Metrics,
		contentService, userService, perspectiveService,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
