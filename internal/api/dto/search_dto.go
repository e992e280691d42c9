package dto

// SearchPhotoRequest 搜索请求参数
type SearchPhotoRequest struct {
	Q        string `form:"q"`
	Sort     string `form:"sort"` // relevance, latest, likes
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// SearchPhotoData 搜索结果
type SearchPhotoData struct {
	Photos     []PhotoInfo `json:"photos"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int64       `json:"total_pages"`
	Source     string      `json:"source"` // elasticsearch | database
}
