package kafka

import (
	"context"
	"encoding/json"
	"time"

	"skymate/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// LikeEventHandler 处理点赞事件的回调函数
type LikeEventHandler func(ctx context.Context, event *LikeEvent) error

// messageReader 便于测试替换 kafka.Reader
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// NewLikeEventReader 创建点赞事件消费者
func NewLikeEventReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})
}

// ConsumeLikeEvents 阻塞消费直到 ctx 取消，需在 goroutine 中运行
func ConsumeLikeEvents(ctx context.Context, reader messageReader, handler LikeEventHandler) {
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Error("Failed to close kafka consumer", zap.Error(err))
		}
		logger.Info("Kafka like event consumer stopped")
	}()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Failed to read kafka message", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		var event LikeEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("Failed to unmarshal like event",
				zap.Error(err),
				zap.ByteString("value", msg.Value),
			)
			continue
		}

		if err := handler(ctx, &event); err != nil {
			logger.Error("Failed to handle like event",
				zap.Int64("photo_id", event.PhotoID),
				zap.Error(err),
			)
		}
	}
}
