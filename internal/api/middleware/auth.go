package middleware

import (
	"context"
	"strings"

	"skymate/internal/api/response"
	"skymate/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	ContextKeyUserID = "currentUserID"
	ContextKeyClaims = "currentClaims"
)

// TokenAuthenticator 校验 token（含注销检查）
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*utils.Claims, error)
}

// AuthRequired JWT 认证中间件，要求请求必须携带有效 Token
func AuthRequired(auth TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "缺少认证令牌")
			c.Abort()
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Unauthorized(c, "无效或过期的认证令牌")
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// AuthOptional 携带有效 Token 时注入用户，否则按匿名访问继续
func AuthOptional(auth TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if claims, err := auth.Authenticate(c.Request.Context(), token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func setClaims(c *gin.Context, claims *utils.Claims) {
	c.Set(ContextKeyUserID, claims.UserID)
	c.Set(ContextKeyClaims, claims)
}

// GetCurrentUserID 从 Gin Context 中获取当前登录用户 ID
func GetCurrentUserID(c *gin.Context) (int64, bool) {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0, false
	}
	userID, ok := val.(int64)
	return userID, ok
}

// GetViewerID 匿名访问时返回 nil
func GetViewerID(c *gin.Context) *int64 {
	if userID, ok := GetCurrentUserID(c); ok {
		return &userID
	}
	return nil
}

// GetClaims 获取当前 token 的 Claims
func GetClaims(c *gin.Context) (*utils.Claims, bool) {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := val.(*utils.Claims)
	return claims, ok
}

// extractToken 从 Authorization 头中提取 Bearer Token
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
