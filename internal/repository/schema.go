package repository

import (
	"context"
	"fmt"

	"skymate/internal/model"

	"gorm.io/gorm"
)

// Schema 当前数据库中点赞相关结构的可用情况
type Schema struct {
	HasLikesTable   bool
	HasLikesCounter bool
}

// SchemaInspector 通过 gorm Migrator 探测表结构
type SchemaInspector struct {
	db *gorm.DB
}

func NewSchemaInspector(db *gorm.DB) *SchemaInspector {
	return &SchemaInspector{db: db}
}

// Inspect 先 ping 确认连接可用，再检查 likes 表和 photos.likes_count 列。
// Migrator 的 HasTable 会吞掉错误，所以连接故障必须在 ping 阶段暴露
func (s *SchemaInspector) Inspect(ctx context.Context) (Schema, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return Schema{}, fmt.Errorf("get sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return Schema{}, fmt.Errorf("ping database: %w", err)
	}

	m := s.db.WithContext(ctx).Migrator()
	schema := Schema{HasLikesTable: m.HasTable(&model.Like{})}
	if m.HasTable(&model.Photo{}) {
		schema.HasLikesCounter = m.HasColumn(&model.Photo{}, model.LikesCountColumn)
	}
	return schema, nil
}
