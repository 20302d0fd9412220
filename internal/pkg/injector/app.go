package injector

import (
	"context"
	"errors"
	"fmt"

	"github.com/lk2023060901/perspectize-backend/internal/conf"
	contentbiz "github.com/lk2023060901/perspectize-backend/internal/content/biz"
	contentdata "github.com/lk2023060901/perspectize-backend/internal/content/data"
	"github.com/lk2023060901/perspectize-backend/internal/data"
	perspectivebiz "github.com/lk2023060901/perspectize-backend/internal/perspective/biz"
	perspectivedata "github.com/lk2023060901/perspectize-backend/internal/perspective/data"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/cache"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/metrics"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/workerpool"
	userbiz "github.com/lk2023060901/perspectize-backend/internal/user/biz"
	userdata "github.com/lk2023060901/perspectize-backend/internal/user/data"
	"github.com/lk2023060901/perspectize-backend/internal/youtube"
	"go.uber.org/zap"
)

// VideoClient is what the content routes need from the YouTube client
type VideoClient interface {
	GetVideo(ctx context.Context, videoID string) (*youtube.Video, []byte, error)
	FetchVideo(ctx context.Context, videoID string) ([]byte, error)
}

// App encapsulates all application dependencies
type App struct {
	Config  *conf.Config
	Logger  *logger.Logger
	Data    *data.Data
	Metrics *metrics.Metrics
	Videos  VideoClient

	Content      *contentbiz.ContentUseCase
	Users        *userbiz.UserUseCase
	Perspectives *perspectivebiz.PerspectiveUseCase

	cleanups []func()
}

// NewApp connects the stores and builds every use case. The sentinel users
// are ensured before it returns.
func NewApp(ctx context.Context, config *conf.Config, log *logger.Logger) (*App, error) {
	d, cleanup, err := data.NewData(config, log)
	if err != nil {
		return nil, err
	}
	app := &App{
		Config:   config,
		Logger:   log,
		Data:     d,
		Metrics:  metrics.New(),
		cleanups: []func(){cleanup},
	}

	app.Videos, err = newVideoClient(config, d, app.Metrics, log)
	if err != nil {
		app.Cleanup()
		return nil, err
	}

	queryCache := cache.New(d.Redis, config.Cache.TTL, app.Metrics, log)

	opts := []contentbiz.Option{
		contentbiz.WithCache(queryCache),
		contentbiz.WithMetrics(app.Metrics),
	}
	if config.Ingest.Workers > 1 {
		pool, err := workerpool.New(&workerpool.Config{Workers: config.Ingest.Workers}, log.Logger)
		if err != nil {
			app.Cleanup()
			return nil, fmt.Errorf("failed to create ingest pool: %w", err)
		}
		app.cleanups = append(app.cleanups, pool.Close)
		log.Info("ingest pool started", zap.Int("workers", pool.Size()))
		opts = append(opts, contentbiz.WithPool(pool))
	}

	app.Content = contentbiz.NewContentUseCase(contentdata.NewContentRepo(d.DB), app.Videos, log, opts...)
	app.Users = userbiz.NewUserUseCase(userdata.NewUserRepo(d.DB), queryCache, log)
	app.Perspectives = perspectivebiz.NewPerspectiveUseCase(perspectivedata.NewPerspectiveRepo(d.DB), log)

	if err := app.Users.EnsureSentinels(ctx); err != nil {
		app.Cleanup()
		return nil, fmt.Errorf("failed to ensure system users: %w", err)
	}

	return app, nil
}

// Cleanup releases all resources in reverse order of creation
func (a *App) Cleanup() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}

// newVideoClient builds the YouTube client. Without an API key the server
// still starts; video lookups then fail with ErrMissingAPIKey.
func newVideoClient(config *conf.Config, d *data.Data, m *metrics.Metrics, log *logger.Logger) (VideoClient, error) {
	client, err := youtube.NewClient(&config.YouTube, log.Named("youtube"),
		youtube.WithCache(d.Redis),
		youtube.WithMetrics(m),
	)
	if errors.Is(err, youtube.ErrMissingAPIKey) {
		log.Warn("youtube api key not configured, ingestion is disabled (this is optional)")
		return missingKeyClient{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to init youtube client: %w", err)
	}
	return client, nil
}

type missingKeyClient struct{}

func (missingKeyClient) GetVideo(ctx context.Context, videoID string) (*youtube.Video, []byte, error) {
	return nil, nil, youtube.ErrMissingAPIKey
}

func (missingKeyClient) FetchVideo(ctx context.Context, videoID string) ([]byte, error) {
	return nil, youtube.ErrMissingAPIKey
}

var _ VideoClient = (*youtube.Client)(nil)
