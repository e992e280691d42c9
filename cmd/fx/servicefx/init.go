package servicefx

import (
	"context"

	"skymate/internal/config"
	infraMinio "skymate/internal/infra/minio"
	"skymate/internal/repository"
	"skymate/internal/service"
	"skymate/pkg/logger"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(
		provideLikeService,
		providePhotoService,
		provideSearchService,
		provideAuthService,
	),
	fx.Invoke(probeLikeCapability),
)

func provideLikeService(
	photoRepo *repository.PhotoRepository,
	likeRepo *repository.LikeRepository,
	inspector *repository.SchemaInspector,
	storage *infraMinio.Storage,
	publisher service.LikeEventPublisher,
	cfg *config.Config,
) *service.LikeService {
	return service.NewLikeService(photoRepo, likeRepo, inspector, storage, publisher, cfg.Likes.RequestTimeoutDuration())
}

func providePhotoService(
	photoRepo *repository.PhotoRepository,
	storage *infraMinio.Storage,
	indexer service.PhotoIndexer,
	likeService *service.LikeService,
) *service.PhotoService {
	return service.NewPhotoService(photoRepo, storage, indexer, likeService)
}

func provideSearchService(
	searcher service.PhotoSearcher,
	photoRepo *repository.PhotoRepository,
	likeService *service.LikeService,
) *service.SearchService {
	return service.NewSearchService(searcher, photoRepo, likeService)
}

func provideAuthService(
	userRepo *repository.UserRepository,
	revoker service.TokenRevoker,
	cfg *config.Config,
) *service.AuthService {
	return service.NewAuthService(userRepo, revoker, cfg.JWT, cfg.App.Name)
}

// probeLikeCapability 启动时探测一次；失败不阻止启动，首次请求时会重试
func probeLikeCapability(lc fx.Lifecycle, likeService *service.LikeService, cfg *config.Config) {
	if !cfg.Likes.ProbeOnStartup {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			caps, err := likeService.Detect(ctx)
			if err != nil {
				logger.Warn("Like capability probe failed, will retry lazily", zap.Error(err))
				return nil
			}
			logger.Info("Like service ready",
				zap.String("mode", caps.Mode.String()),
				zap.Bool("has_counter", caps.HasCounter),
			)
			return nil
		},
	})
}
