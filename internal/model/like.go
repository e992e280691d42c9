package model

import "time"

// Like 用户对照片的点赞，(user_id, photo_id) 唯一
type Like struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;comment:点赞记录ID" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:uq_user_photo_like;index:idx_likes_user_id;comment:点赞用户ID" json:"user_id"`
	PhotoID   int64     `gorm:"not null;uniqueIndex:uq_user_photo_like;index:idx_likes_photo_id;comment:被点赞照片ID" json:"photo_id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_likes_created_at;comment:点赞时间" json:"created_at"`
}

func (Like) TableName() string {
	return "likes"
}
