package router

import (
	"skymate/internal/api/handler"
	"skymate/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers 业务路由依赖的 Handler 集合
type Handlers struct {
	Auth   *handler.AuthHandler
	Photo  *handler.PhotoHandler
	Like   *handler.LikeHandler
	Search *handler.SearchHandler
}

// Setup 注册所有业务路由
func Setup(r *gin.Engine, h Handlers, auth middleware.TokenAuthenticator) {
	v1 := r.Group("/api/v1")

	required := middleware.AuthRequired(auth)
	optional := middleware.AuthOptional(auth)

	// --- 认证模块 ---
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)

		authRequired := authGroup.Group("", required)
		{
			authRequired.POST("/logout", h.Auth.Logout)
			authRequired.GET("/me", h.Auth.Me)
		}
	}

	// --- 照片模块 ---
	photos := v1.Group("/photos")
	{
		// 公开接口，携带 Token 时返回点赞状态
		public := photos.Group("", optional)
		{
			public.GET("", h.Photo.List)
			public.GET("/:id", h.Photo.Get)
			public.GET("/user/:user_id", h.Photo.ListByUser)
			public.GET("/:id/likes", h.Like.GetCount)
		}

		photosAuth := photos.Group("", required)
		{
			photosAuth.POST("", h.Photo.Upload)
			photosAuth.DELETE("/:id", h.Photo.Delete)

			photosAuth.GET("/:id/likes/status", h.Like.GetStatus)
			photosAuth.POST("/:id/likes", h.Like.Add)
			photosAuth.DELETE("/:id/likes", h.Like.Remove)
			photosAuth.POST("/:id/likes/toggle", h.Like.Toggle)
		}
	}

	// --- 点赞模块 ---
	likes := v1.Group("/likes")
	{
		likes.GET("/capabilities", h.Like.Capabilities)
		likes.GET("/my/photos", required, h.Like.MyLikedPhotos)
	}

	// --- 搜索模块 ---
	v1.GET("/search/photos", optional, h.Search.SearchPhotos)
}
