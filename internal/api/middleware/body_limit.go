package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"seatboard/backend/pkg/response"
)

const codeBodyTooLarge = 10005

// BodyLimit 请求体大小限制。
// 声明了 Content-Length 的超限请求直接拒绝；分块上传由 MaxBytesReader 在读取时截断，
// 绑定失败后由 handler 返回 413。
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, codeBodyTooLarge, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
