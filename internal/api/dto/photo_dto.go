package dto

import "time"

// PhotoInfo 带点赞信息的照片
type PhotoInfo struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	URL           string    `json:"url"`
	StoragePath   string    `json:"storage_path,omitempty"`
	Description   string    `json:"description"`
	Location      *string   `json:"location"`
	CreatedAt     time.Time `json:"created_at"`
	Likes         int64     `json:"likes"`
	IsLikedByUser bool      `json:"is_liked_by_user"`
}

// PhotoListData 照片列表
type PhotoListData struct {
	Photos []PhotoInfo `json:"photos"`
	Total  int         `json:"total"`
}

// PhotoUploadRequest 上传照片的表单字段（文件字段为 file）
type PhotoUploadRequest struct {
	Description string  `form:"description" binding:"max=2000"`
	Location    *string `form:"location" binding:"omitempty,max=255"`
}
