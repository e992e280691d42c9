package handler

import (
	"skymate/internal/api/dto"
	"skymate/internal/api/middleware"
	"skymate/internal/api/response"
	"skymate/internal/service"

	"github.com/gin-gonic/gin"
)

// maxPhotoSize 单张照片上限 20MB
const maxPhotoSize = int64(20 * 1024 * 1024)

type PhotoHandler struct {
	photoService *service.PhotoService
	likeService  *service.LikeService
}

func NewPhotoHandler(photoService *service.PhotoService, likeService *service.LikeService) *PhotoHandler {
	return &PhotoHandler{photoService: photoService, likeService: likeService}
}

// List 社区照片墙
// @Summary 照片列表
// @Description 全部照片（最新在前），携带 Token 时返回当前用户的点赞状态
// @Tags 照片
// @Produce json
// @Success 200 {object} response.Response{data=dto.PhotoListData} "获取成功"
// @Router /photos [get]
func (h *PhotoHandler) List(c *gin.Context) {
	photos := h.likeService.GetPhotosWithLikes(c.Request.Context(), middleware.GetViewerID(c))
	response.OK(c, "获取照片列表成功", dto.PhotoListData{Photos: photos, Total: len(photos)})
}

// Upload 上传照片
// @Summary 上传照片
// @Tags 照片
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "照片文件"
// @Param description formData string false "描述"
// @Param location formData string false "拍摄地点"
// @Success 201 {object} response.Response{data=dto.PhotoInfo} "上传成功"
// @Failure 400 {object} response.ErrorResponse "请求参数无效"
// @Router /photos [post]
func (h *PhotoHandler) Upload(c *gin.Context) {
	var req dto.PhotoUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "请上传照片文件")
		return
	}
	if file.Size == 0 || file.Size > maxPhotoSize {
		response.BadRequest(c, "文件大小无效（不能为空，最大 20MB）")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.InternalError(c, "打开上传文件失败")
		return
	}
	defer f.Close()

	userID, _ := middleware.GetCurrentUserID(c)
	info, err := h.photoService.Upload(c.Request.Context(), userID, &req, f, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		handleServiceError(c, "Upload photo", err)
		return
	}

	response.Created(c, "照片上传成功", info)
}

// Get 照片详情
// @Summary 照片详情
// @Tags 照片
// @Produce json
// @Param id path int true "照片ID"
// @Success 200 {object} response.Response{data=dto.PhotoInfo} "获取成功"
// @Failure 404 {object} response.ErrorResponse "照片不存在"
// @Router /photos/{id} [get]
func (h *PhotoHandler) Get(c *gin.Context) {
	photoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	info, err := h.photoService.Get(c.Request.Context(), photoID, middleware.GetViewerID(c))
	if err != nil {
		handleServiceError(c, "Get photo", err)
		return
	}

	response.OK(c, "获取照片详情成功", info)
}

// ListByUser 用户上传的照片
// @Summary 用户照片
// @Tags 照片
// @Produce json
// @Param user_id path int true "用户ID"
// @Success 200 {object} response.Response{data=dto.PhotoListData} "获取成功"
// @Router /photos/user/{user_id} [get]
func (h *PhotoHandler) ListByUser(c *gin.Context) {
	ownerID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	photos, err := h.photoService.ListByUser(c.Request.Context(), ownerID, middleware.GetViewerID(c))
	if err != nil {
		handleServiceError(c, "List user photos", err)
		return
	}

	response.OK(c, "获取用户照片成功", dto.PhotoListData{Photos: photos, Total: len(photos)})
}

// Delete 删除照片
// @Summary 删除照片
// @Description 仅上传者可以删除，点赞记录一并删除
// @Tags 照片
// @Produce json
// @Security BearerAuth
// @Param id path int true "照片ID"
// @Success 200 {object} response.Response "删除成功"
// @Failure 403 {object} response.ErrorResponse "无权限"
// @Failure 404 {object} response.ErrorResponse "照片不存在"
// @Router /photos/{id} [delete]
func (h *PhotoHandler) Delete(c *gin.Context) {
	photoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetCurrentUserID(c)
	if err := h.photoService.Delete(c.Request.Context(), photoID, userID); err != nil {
		handleServiceError(c, "Delete photo", err)
		return
	}

	response.OK(c, "照片已删除", nil)
}
