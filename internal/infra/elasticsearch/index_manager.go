package elasticsearch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"skymate/pkg/logger"

	"go.uber.org/zap"
)

// PhotosIndexMapping photos 索引的 mapping
const PhotosIndexMapping = `{
	"settings": {
		"number_of_shards": 1,
		"number_of_replicas": 0
	},
	"mappings": {
		"properties": {
			"id": {"type": "long"},
			"user_id": {"type": "long"},
			"description": {"type": "text", "analyzer": "standard"},
			"location": {
				"type": "text",
				"analyzer": "standard",
				"fields": {"keyword": {"type": "keyword", "ignore_above": 255}}
			},
			"likes_count": {"type": "long"},
			"created_at": {"type": "date", "format": "strict_date_optional_time||epoch_millis"}
		}
	}
}`

// EnsurePhotosIndex 确保 photos 索引存在，不存在则创建
func (c *Client) EnsurePhotosIndex(ctx context.Context) error {
	exists, err := c.indicesExists(ctx)
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	if exists {
		logger.Info("Elasticsearch photos index already exists", zap.String("index", c.index))
		return nil
	}

	resp, err := c.indicesCreate(ctx, strings.NewReader(PhotosIndexMapping))
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("create index failed: %s", resp.String())
	}

	logger.Info("Elasticsearch photos index created", zap.String("index", c.index))
	return nil
}

// InitIndexes 启动时初始化索引
func (c *Client) InitIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.EnsurePhotosIndex(ctx)
}
