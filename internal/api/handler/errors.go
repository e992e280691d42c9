package handler

import (
	"errors"
	"strconv"

	"skymate/internal/api/response"
	"skymate/internal/service"
	"skymate/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// parseIDParam 解析路径中的正整数 ID
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的ID: "+c.Param(name))
		return 0, false
	}
	return id, true
}

// handleServiceError 服务层错误到 HTTP 状态码的映射
func handleServiceError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrPhotoNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrPhotoNoPermission):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrUnsupportedPhotoType):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrLikeConflict):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrBackendUnavailable):
		logger.Warn(op+" failed: backend unavailable",
			zap.String("trace_id", c.GetString(response.TraceIDKey)), zap.Error(err))
		response.ServiceUnavailable(c, "存储暂不可用，请稍后重试")
	default:
		logger.Error(op+" failed",
			zap.String("trace_id", c.GetString(response.TraceIDKey)), zap.Error(err))
		response.InternalError(c, "操作失败，请稍后重试")
	}
}
