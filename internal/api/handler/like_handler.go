package handler

import (
	"skymate/internal/api/dto"
	"skymate/internal/api/middleware"
	"skymate/internal/api/response"
	"skymate/internal/service"

	"github.com/gin-gonic/gin"
)

type LikeHandler struct {
	likeService *service.LikeService
}

func NewLikeHandler(likeService *service.LikeService) *LikeHandler {
	return &LikeHandler{likeService: likeService}
}

// GetCount 照片点赞数
// @Summary 点赞数
// @Tags 点赞
// @Produce json
// @Param id path int true "照片ID"
// @Success 200 {object} response.Response{data=dto.LikeStatus} "获取成功"
// @Failure 404 {object} response.ErrorResponse "照片不存在"
// @Failure 503 {object} response.ErrorResponse "存储不可用"
// @Router /photos/{id}/likes [get]
func (h *LikeHandler) GetCount(c *gin.Context) {
	photoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	count, err := h.likeService.GetLikesCount(c.Request.Context(), photoID)
	if err != nil {
		handleServiceError(c, "Get likes count", err)
		return
	}

	response.OK(c, "获取点赞数成功", dto.LikeStatus{PhotoID: photoID, Likes: count})
}

// GetStatus 当前用户是否已点赞
// @Summary 点赞状态
// @Tags 点赞
// @Produce json
// @Security BearerAuth
// @Param id path int true "照片ID"
// @Success 200 {object} response.Response{data=dto.LikeStatus} "获取成功"
// @Router /photos/{id}/likes/status [get]
func (h *LikeHandler) GetStatus(c *gin.Context) {
	photoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.GetCurrentUserID(c)
	ctx := c.Request.Context()

	liked, err := h.likeService.HasUserLiked(ctx, photoID, userID)
	if err != nil {
		handleServiceError(c, "Get like status", err)
		return
	}
	count, err := h.likeService.GetLikesCount(ctx, photoID)
	if err != nil {
		handleServiceError(c, "Get like status", err)
		return
	}

	response.OK(c, "获取点赞状态成功", dto.LikeStatus{PhotoID: photoID, IsLiked: liked, Likes: count})
}

// Add 点赞（重复点赞视为成功）
// @Summary 点赞
// @Tags 点赞
// @Produce json
// @Security BearerAuth
// @Param id path int true "照片ID"
// @Success 200 {object} response.Response "点赞成功"
// @Failure 404 {object} response.ErrorResponse "照片不存在"
// @Router /photos/{id}/likes [post]
func (h *LikeHandler) Add(c *gin.Context) {
	photoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.GetCurrentUserID(c)

	if err := h.likeService.AddLike(c.Request.Context(), photoID, userID); err != nil {
		handleServiceError(c, "Add like", err)
		return
	}

	response.OK(c, "点赞成功", nil)
}

// Remove 取消点赞（未点赞时无操作）
// @Summary 取消点赞
// @Tags 点赞
// @Produce json
// @Security BearerAuth
// @Param id path int true "照片ID"
// @Success 200 {object} response.Response "取消点赞成功"
// @Router /photos/{id}/likes [delete]
func (h *LikeHandler) Remove(c *gin.Context) {
	photoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.GetCurrentUserID(c)

	if err := h.likeService.RemoveLike(c.Request.Context(), photoID, userID); err != nil {
		handleServiceError(c, "Remove like", err)
		return
	}

	response.OK(c, "取消点赞成功", nil)
}

// Toggle 切换点赞状态
// @Summary 切换点赞
// @Description 已点赞则取消，未点赞则点赞，返回重新统计的点赞数
// @Tags 点赞
// @Produce json
// @Security BearerAuth
// @Param id path int true "照片ID"
// @Success 200 {object} response.Response{data=dto.ToggleResult} "操作成功"
// @Failure 404 {object} response.ErrorResponse "照片不存在"
// @Failure 503 {object} response.ErrorResponse "存储不可用"
// @Router /photos/{id}/likes/toggle [post]
func (h *LikeHandler) Toggle(c *gin.Context) {
	photoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.GetCurrentUserID(c)

	result, err := h.likeService.ToggleLike(c.Request.Context(), photoID, userID)
	if err != nil {
		handleServiceError(c, "Toggle like", err)
		return
	}

	response.OK(c, "操作成功", result)
}

// MyLikedPhotos 我点赞过的照片
// @Summary 我的点赞
// @Tags 点赞
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=dto.PhotoListData} "获取成功"
// @Router /likes/my/photos [get]
func (h *LikeHandler) MyLikedPhotos(c *gin.Context) {
	userID, _ := middleware.GetCurrentUserID(c)
	photos := h.likeService.GetUserLikedPhotos(c.Request.Context(), userID)
	response.OK(c, "获取点赞照片成功", dto.PhotoListData{Photos: photos, Total: len(photos)})
}

// Capabilities 点赞存储运行模式
// @Summary 点赞存储模式
// @Tags 点赞
// @Produce json
// @Success 200 {object} response.Response{data=dto.CapabilityInfo} "获取成功"
// @Failure 503 {object} response.ErrorResponse "存储不可用"
// @Router /likes/capabilities [get]
func (h *LikeHandler) Capabilities(c *gin.Context) {
	caps, err := h.likeService.Detect(c.Request.Context())
	if err != nil {
		handleServiceError(c, "Detect like capability", err)
		return
	}

	response.OK(c, "获取成功", dto.CapabilityInfo{Mode: caps.Mode.String(), HasCounter: caps.HasCounter})
}
