package repository

import (
	"context"
	"errors"

	"skymate/internal/model"

	"gorm.io/gorm"
)

// ErrDuplicateLike (user_id, photo_id) 唯一约束冲突
var ErrDuplicateLike = errors.New("like already exists")

type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Create 新增点赞，唯一约束冲突返回 ErrDuplicateLike
func (r *LikeRepository) Create(ctx context.Context, userID, photoID int64) (*model.Like, error) {
	like := &model.Like{UserID: userID, PhotoID: photoID}
	if err := r.db.WithContext(ctx).Create(like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateLike
		}
		return nil, err
	}
	return like, nil
}

// Delete 取消点赞，返回是否删除了记录
func (r *LikeRepository) Delete(ctx context.Context, userID, photoID int64) (bool, error) {
	result := r.db.WithContext(ctx).Where("user_id = ? AND photo_id = ?", userID, photoID).Delete(&model.Like{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Exists 是否已点赞
func (r *LikeRepository) Exists(ctx context.Context, userID, photoID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("user_id = ? AND photo_id = ?", userID, photoID).Count(&count).Error
	return count > 0, err
}

// CountByPhoto 统计照片的点赞数
func (r *LikeRepository) CountByPhoto(ctx context.Context, photoID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).Where("photo_id = ?", photoID).Count(&count).Error
	return count, err
}

// CountByPhotos 批量统计点赞数，未出现的照片计为 0
func (r *LikeRepository) CountByPhotos(ctx context.Context, photoIDs []int64) (map[int64]int64, error) {
	result := make(map[int64]int64, len(photoIDs))
	if len(photoIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		PhotoID int64
		Total   int64
	}
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Select("photo_id, COUNT(*) AS total").
		Where("photo_id IN ?", photoIDs).
		Group("photo_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, id := range photoIDs {
		result[id] = 0
	}
	for _, row := range rows {
		result[row.PhotoID] = row.Total
	}
	return result, nil
}

// BatchCheckLiked 批量查询点赞状态
func (r *LikeRepository) BatchCheckLiked(ctx context.Context, userID int64, photoIDs []int64) (map[int64]bool, error) {
	if len(photoIDs) == 0 {
		return map[int64]bool{}, nil
	}

	var likedIDs []int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("user_id = ? AND photo_id IN ?", userID, photoIDs).
		Pluck("photo_id", &likedIDs).Error
	if err != nil {
		return nil, err
	}

	likedSet := make(map[int64]bool, len(likedIDs))
	for _, id := range likedIDs {
		likedSet[id] = true
	}

	result := make(map[int64]bool, len(photoIDs))
	for _, id := range photoIDs {
		result[id] = likedSet[id]
	}
	return result, nil
}

// LikedPhotoIDs 获取用户点赞过的照片 ID
func (r *LikeRepository) LikedPhotoIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("photo_id", &ids).Error
	return ids, err
}
