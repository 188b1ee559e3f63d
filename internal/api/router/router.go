package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"schoolhub/timetable/config"
	"schoolhub/timetable/internal/api/handler"
	"schoolhub/timetable/internal/api/middleware"
	"schoolhub/timetable/pkg/jwt"
	"schoolhub/timetable/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时写接口限流降级放行
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查与指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var limiter middleware.RateLimiter
	if rdb != nil {
		limiter = rdb
	}
	writeLimit := middleware.RateLimit(limiter, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window)
	adminOnly := middleware.RoleAuth(cfg.Auth.AdminRole)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		// 时间段模块
		timeSlots := v1.Group("/time-slots")
		{
			timeSlots.GET("", h.TimeSlot.ListTimeSlots)
			timeSlots.GET("/end-time", h.TimeSlot.ComputeEndTime)
			timeSlots.GET("/:id", h.TimeSlot.GetTimeSlot)
			timeSlots.POST("/check-conflict", h.TimeSlot.CheckConflict)
			timeSlots.POST("", adminOnly, writeLimit, h.TimeSlot.CreateTimeSlot)
			timeSlots.PUT("/:id", adminOnly, writeLimit, h.TimeSlot.UpdateTimeSlot)
			timeSlots.DELETE("/:id", adminOnly, writeLimit, h.TimeSlot.DeleteTimeSlot)
		}

		// 课表导出
		sections := v1.Group("/sections")
		{
			sections.GET("/:id/timetable.xlsx", h.Export.ExportXLSX)
			sections.GET("/:id/timetable.ics", h.Export.ExportICS)
		}
	}

	return r
}
