package infrafx

import (
	"context"

	"skymate/internal/config"
	"skymate/internal/infra/database"
	infraES "skymate/internal/infra/elasticsearch"
	infraKafka "skymate/internal/infra/kafka"
	infraMinio "skymate/internal/infra/minio"
	infraRedis "skymate/internal/infra/redis"
	"skymate/internal/service"
	"skymate/pkg/logger"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module 基础设施：数据库、Redis、MinIO、Kafka、Elasticsearch
var Module = fx.Provide(
	provideDB,
	provideTokenRevoker,
	provideStorage,
	provideLikeEventPublisher,
	provideESClient,
	providePhotoIndexer,
	providePhotoSearcher,
)

func provideDB(lc fx.Lifecycle, cfg *config.Config) (*gorm.DB, error) {
	if err := database.Init(&cfg.Database); err != nil {
		return nil, err
	}
	db := database.Get()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, cfg.Database.MigrateLikes); err != nil {
			return nil, err
		}
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return database.Close(db)
		},
	})
	return db, nil
}

// provideTokenRevoker Redis 不可用时返回 nil，登出不再吊销 token
func provideTokenRevoker(lc fx.Lifecycle, cfg *config.Config) service.TokenRevoker {
	client, err := infraRedis.New(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis init failed, token revocation disabled", zap.Error(err))
		return nil
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info("Redis connection closed")
			return client.Close()
		},
	})
	return infraRedis.NewTokenStore(client)
}

func provideStorage(cfg *config.Config) (*infraMinio.Storage, error) {
	return infraMinio.New(&cfg.MinIO)
}

func provideLikeEventPublisher(lc fx.Lifecycle, cfg *config.Config) service.LikeEventPublisher {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Warn("Kafka brokers not configured, like events disabled")
		return nil
	}
	producer := infraKafka.NewProducer(&cfg.Kafka)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return producer.Close()
		},
	})
	return producer
}

// provideESClient ES 可选，失败时搜索降级到数据库
func provideESClient(cfg *config.Config) *infraES.Client {
	client, err := infraES.New(&cfg.Elasticsearch)
	if err != nil {
		logger.Warn("Elasticsearch init failed, search will fallback to DB", zap.Error(err))
		return nil
	}
	if err := client.InitIndexes(); err != nil {
		logger.Warn("Elasticsearch index init failed", zap.Error(err))
	}
	return client
}

func providePhotoIndexer(client *infraES.Client) service.PhotoIndexer {
	if client == nil {
		return nil
	}
	return client
}

func providePhotoSearcher(client *infraES.Client) service.PhotoSearcher {
	if client == nil {
		return nil
	}
	return client
}
