package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"skymate/internal/config"
	"skymate/internal/infra/database"
	infraES "skymate/internal/infra/elasticsearch"
	infraKafka "skymate/internal/infra/kafka"
	"skymate/internal/repository"
	"skymate/internal/service"
	"skymate/pkg/logger"

	"go.uber.org/zap"
)

// 点赞计数同步 worker：消费 photo_liked 事件，按 likes 表回写计数并更新搜索索引
func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.FilePath); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	db := database.Get()
	defer database.Close(db)

	esClient, err := infraES.New(&cfg.Elasticsearch)
	if err != nil {
		logger.Warn("Elasticsearch init failed, index sync disabled", zap.Error(err))
	}

	photoRepo := repository.NewPhotoRepository(db)
	likeService := service.NewLikeService(
		photoRepo,
		repository.NewLikeRepository(db),
		repository.NewSchemaInspector(db),
		nil,
		nil,
		cfg.Likes.RequestTimeoutDuration(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	topic := cfg.Kafka.Topic(infraKafka.TopicPhotoLiked)
	groupID := cfg.Kafka.GroupID

	logger.Info("Like sync worker started",
		zap.String("topic", topic),
		zap.String("group", groupID),
		zap.Strings("brokers", cfg.Kafka.Brokers),
	)

	reader := infraKafka.NewLikeEventReader(cfg.Kafka.Brokers, topic, groupID)
	infraKafka.ConsumeLikeEvents(ctx, reader, newLikeEventHandler(likeService, esClient))
}

func newLikeEventHandler(likeService *service.LikeService, esClient *infraES.Client) infraKafka.LikeEventHandler {
	return func(ctx context.Context, event *infraKafka.LikeEvent) error {
		count, err := likeService.ReconcileCounter(ctx, event.PhotoID)
		if err != nil {
			return fmt.Errorf("reconcile photo %d: %w", event.PhotoID, err)
		}

		if esClient != nil {
			if err := esClient.UpdateLikes(ctx, event.PhotoID, count); err != nil {
				return fmt.Errorf("update search index for photo %d: %w", event.PhotoID, err)
			}
		}

		logger.Debug("Like event processed",
			zap.Int64("photo_id", event.PhotoID),
			zap.Int64("user_id", event.UserID),
			zap.Int64("likes", count),
		)
		return nil
	}
}
