package middleware

import (
	"skymate/internal/api/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const TraceIDHeader = "X-Trace-ID"

// TraceID 为每个请求分配追踪 ID，沿用客户端传入的值
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Set(response.TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)
		c.Next()
	}
}
