package dto

import "time"

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=1,max=255"`
	Password string `json:"password" binding:"required,min=6,max=255"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string  `json:"username" binding:"required,min=1,max=255"`
	Password string  `json:"password" binding:"required,min=6,max=255"`
	Avatar   *string `json:"avatar" binding:"omitempty,max=500"`
}

// TokenData 登录成功返回的 Token 信息
type TokenData struct {
	Token     string   `json:"token"`
	TokenType string   `json:"token_type"`
	ExpiresIn int      `json:"expires_in"`
	User      UserInfo `json:"user"`
}

// UserInfo 用户公开信息（不含密码）
type UserInfo struct {
	ID        int64     `json:"id"`
	Username  string    `json:"user_name"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}
