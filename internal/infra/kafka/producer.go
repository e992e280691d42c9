package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"skymate/internal/config"
	"skymate/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// TopicPhotoLiked 点赞变更事件的逻辑 topic 名
const TopicPhotoLiked = "photo_liked"

// LikeEvent 点赞状态变更消息体
type LikeEvent struct {
	PhotoID    int64 `json:"photo_id"`
	UserID     int64 `json:"user_id"`
	Liked      bool  `json:"liked"`
	Likes      int64 `json:"likes"`
	OccurredAt int64 `json:"occurred_at"`
}

// Key 同一照片的事件落在同一分区，保证按序消费
func (e *LikeEvent) Key() []byte {
	return []byte(fmt.Sprintf("photo-%d", e.PhotoID))
}

// messageWriter 便于测试替换 kafka.Writer
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer 点赞事件生产者
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer 初始化 Kafka 生产者
func NewProducer(cfg *config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info("Kafka producer initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic(TopicPhotoLiked)),
	)

	return &Producer{writer: w, topic: cfg.Topic(TopicPhotoLiked)}
}

// PublishLikeEvent 发送点赞变更事件
func (p *Producer) PublishLikeEvent(ctx context.Context, event LikeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal like event: %w", err)
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   event.Key(),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to send like event: %w", err)
	}

	logger.Debug("Like event sent",
		zap.Int64("photo_id", event.PhotoID),
		zap.Bool("liked", event.Liked),
		zap.String("topic", p.topic),
	)
	return nil
}

// Close 关闭生产者
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	logger.Info("Kafka producer closed")
	return p.writer.Close()
}
