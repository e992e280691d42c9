package model

import "time"

// Photo 社区旅行照片
type Photo struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;comment:照片ID" json:"id"`
	UserID      int64     `gorm:"not null;index:idx_photos_user_id;comment:上传用户ID" json:"user_id"`
	StoragePath string    `gorm:"size:500;comment:对象存储路径" json:"storage_path"`
	URL         string    `gorm:"size:500;comment:公开访问地址" json:"url"`
	Description string    `gorm:"type:text;comment:照片描述" json:"description"`
	Location    *string   `gorm:"size:255;comment:拍摄地点" json:"location"`
	LikesCount  int64     `gorm:"not null;default:0;comment:点赞数（冗余计数）" json:"likes_count"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_photos_created_at;comment:上传时间" json:"created_at"`
}

func (Photo) TableName() string {
	return "photos"
}

// LikesCountColumn 冗余点赞计数列名
const LikesCountColumn = "likes_count"
