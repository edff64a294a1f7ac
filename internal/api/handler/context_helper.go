package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"seatboard/backend/pkg/jwt"
	"seatboard/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString("user_id")
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	s := c.GetString("role")
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustMatchAcademy 解析路径中的学院号，并要求与 Token 中的学院一致。
func MustMatchAcademy(c *gin.Context) (int, bool) {
	academy, err := strconv.Atoi(c.Param("academy"))
	if err != nil || academy <= 0 {
		response.BadRequest(c, 10001, "学院编号无效")
		return 0, false
	}
	own, ok := mustGetAcademy(c)
	if !ok {
		return 0, false
	}
	if own != academy {
		response.Forbidden(c, 10003, "无权访问其他学院")
		return 0, false
	}
	return academy, true
}

// mustGetAcademy 读取 Token 中的学院号
func mustGetAcademy(c *gin.Context) (int, bool) {
	v, exists := c.Get("academy_number")
	own, ok := v.(int)
	if !exists || !ok {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	return own, true
}

// isStaff 教师或院长
func isStaff(role string) bool {
	return role == jwt.RoleTeacher || role == jwt.RoleDirector
}
