package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"seatboard/backend/config"
	"seatboard/backend/internal/api/handler"
	"seatboard/backend/internal/api/middleware"
	"seatboard/backend/pkg/jwt"
	"seatboard/backend/pkg/redis"
)

// 签到限流：同一用户每分钟最多 10 次
const (
	checkInRateLimit  = 10
	checkInRateWindow = time.Minute
	maxBodyBytes      = 1 << 20
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil（Redis 不可用时限流降级放行）。
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	staff := middleware.RoleAuth(jwt.RoleTeacher, jwt.RoleDirector)

	// ── API v1（全部需要认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		// 课程维度：签到 / 出勤 / 座位 / 单日排课
		classes := v1.Group("/classes/:class_id", h.Schedule.ClassScope())
		{
			classes.POST("/check-in", middleware.RateLimit(rdb, checkInRateLimit, checkInRateWindow), h.Attendance.CheckIn)
			classes.GET("/attendance", staff, h.Attendance.GetAttendance)
			classes.PUT("/attendance/:student_id", staff, h.Attendance.SetStatus)

			classes.GET("/seat-board", h.SeatBoard.GetClassBoard)
			classes.PUT("/seats/:label", staff, h.SeatBoard.AssignSeat)

			classes.GET("/schedule/dates/:date", h.Schedule.GetOccurrence)
			classes.PUT("/schedule/dates/:date", staff, h.Schedule.SetDateException)
			classes.GET("/calendar.ics", h.Export.ExportCalendar)
		}

		// 学院维度：教室看板 / 院长总览 / 候课区
		academies := v1.Group("/academies/:academy")
		{
			academies.GET("/rooms/:room/seat-board", h.SeatBoard.GetRoomBoard)
			academies.GET("/overview", middleware.RoleAuth(jwt.RoleDirector), h.Academy.GetOverview)
			academies.POST("/waiting/:student_id", h.Academy.EnterWaiting)
			academies.DELETE("/waiting/:student_id", h.Academy.LeaveWaiting)
		}

		// 导出模块
		export := v1.Group("/export", h.Schedule.ClassScope())
		{
			export.GET("/attendance", staff, h.Export.ExportAttendance)
		}
	}

	return r
}
