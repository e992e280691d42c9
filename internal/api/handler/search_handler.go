package handler

import (
	"skymate/internal/api/dto"
	"skymate/internal/api/middleware"
	"skymate/internal/api/response"
	"skymate/internal/service"

	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	searchService *service.SearchService
}

func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchPhotos 搜索照片
// @Summary 搜索照片
// @Description 按描述和地点搜索照片，Elasticsearch 不可用时降级为数据库查询
// @Tags 搜索
// @Produce json
// @Param q query string false "搜索关键词"
// @Param sort query string false "排序方式: relevance, latest, likes" default(relevance)
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=dto.SearchPhotoData} "搜索成功"
// @Failure 400 {object} response.ErrorResponse "请求参数无效"
// @Failure 503 {object} response.ErrorResponse "存储不可用"
// @Router /search/photos [get]
func (h *SearchHandler) SearchPhotos(c *gin.Context) {
	var req dto.SearchPhotoRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	data, err := h.searchService.SearchPhotos(c.Request.Context(), &req, middleware.GetViewerID(c))
	if err != nil {
		handleServiceError(c, "Search photos", err)
		return
	}

	response.OK(c, "搜索成功", data)
}
