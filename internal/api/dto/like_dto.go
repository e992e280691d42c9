package dto

// ToggleResult 切换点赞后的最新状态
type ToggleResult struct {
	Likes   int64 `json:"likes"`
	IsLiked bool  `json:"is_liked"`
}

// LikeStatus 点赞状态
type LikeStatus struct {
	PhotoID int64 `json:"photo_id"`
	IsLiked bool  `json:"is_liked"`
	Likes   int64 `json:"likes"`
}

// CapabilityInfo 点赞存储能力
type CapabilityInfo struct {
	Mode       string `json:"mode"`
	HasCounter bool   `json:"has_counter"`
}
