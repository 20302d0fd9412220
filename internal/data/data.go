package data

import (
	"fmt"

	"github.com/lk2023060901/perspectize-backend/internal/conf"
	contentdata "github.com/lk2023060901/perspectize-backend/internal/content/data"
	perspectivedata "github.com/lk2023060901/perspectize-backend/internal/perspective/data"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/database"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/redis"
	userdata "github.com/lk2023060901/perspectize-backend/internal/user/data"
	"go.uber.org/zap"
)

// Data holds the shared storage clients
type Data struct {
	DB     *database.DB
	Redis  *redis.Client
	Logger *logger.Logger
}

// Models lists every persisted type in dependency order
func Models() []interface{} {
	return []interface{}{
		&contentdata.ContentPO{},
		&userdata.UserPO{},
		&perspectivedata.PerspectivePO{},
	}
}

func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	db, err := database.New(&config.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	rdb, err := redis.New(&config.Redis, log)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	d := &Data{
		DB:     db,
		Redis:  rdb,
		Logger: log,
	}

	cleanup := func() {
		log.Info("cleaning up data resources")
		if err := rdb.Close(); err != nil {
			log.Warn("redis close failed", zap.Error(err))
		}
		if err := db.Close(); err != nil {
			log.Warn("database close failed", zap.Error(err))
		}
	}

	return d, cleanup, nil
}
