package repository

import (
	"context"
	"strings"

	"skymate/internal/model"

	"gorm.io/gorm"
)

type PhotoRepository struct {
	db *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// newestFirst 按上传时间倒序，同一时刻按 ID 倒序保证稳定
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

// GetByID 根据 ID 获取照片
func (r *PhotoRepository) GetByID(ctx context.Context, id int64) (*model.Photo, error) {
	var photo model.Photo
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&photo).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

// Create 创建照片记录
func (r *PhotoRepository) Create(ctx context.Context, photo *model.Photo) error {
	return r.db.WithContext(ctx).Create(photo).Error
}

// ListAll 获取全部照片（最新在前）
func (r *PhotoRepository) ListAll(ctx context.Context) ([]model.Photo, error) {
	var photos []model.Photo
	err := r.db.WithContext(ctx).Scopes(newestFirst).Find(&photos).Error
	return photos, err
}

// ListByUser 获取某用户上传的照片（最新在前）
func (r *PhotoRepository) ListByUser(ctx context.Context, userID int64) ([]model.Photo, error) {
	var photos []model.Photo
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Scopes(newestFirst).Find(&photos).Error
	return photos, err
}

// GetByIDs 批量获取照片（最新在前）
func (r *PhotoRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Photo, error) {
	if len(ids) == 0 {
		return []model.Photo{}, nil
	}
	var photos []model.Photo
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Scopes(newestFirst).Find(&photos).Error
	return photos, err
}

// SetLikesCount 写入冗余点赞数，负数按 0 处理
func (r *PhotoRepository) SetLikesCount(ctx context.Context, id, count int64) error {
	if count < 0 {
		count = 0
	}
	result := r.db.WithContext(ctx).Model(&model.Photo{}).Where("id = ?", id).
		UpdateColumn(model.LikesCountColumn, count)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteWithLikes 在同一事务中删除照片及其点赞记录
func (r *PhotoRepository) DeleteWithLikes(ctx context.Context, id int64, withLikes bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if withLikes {
			if err := tx.Where("photo_id = ?", id).Delete(&model.Like{}).Error; err != nil {
				return err
			}
		}
		result := tx.Where("id = ?", id).Delete(&model.Photo{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Search 数据库模糊搜索（ES 不可用时的降级路径）
func (r *PhotoRepository) Search(ctx context.Context, q string, sort string, skip, limit int) ([]model.Photo, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Photo{})

	if q = strings.TrimSpace(q); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(description) LIKE ? OR LOWER(COALESCE(location, '')) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if sort == "likes" {
		query = query.Order(model.LikesCountColumn + " DESC")
	}

	var photos []model.Photo
	err := query.Scopes(newestFirst).Offset(skip).Limit(limit).Find(&photos).Error
	if err != nil {
		return nil, 0, err
	}
	return photos, total, nil
}
