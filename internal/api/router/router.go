package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classbell/config"
	"classbell/internal/api/handler"
	"classbell/internal/api/middleware"
	"classbell/pkg/jwt"
	"classbell/pkg/redis"
)

const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时不做黑名单检查与限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	var (
		checker middleware.TokenChecker
		limiter middleware.RateLimiter
	)
	if rdb != nil {
		checker, limiter = rdb, rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", h.Health.Health)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(limiter, 20, time.Minute))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, checker))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 课程模块
			courses := authorized.Group("/courses")
			{
				courses.GET("", h.Course.ListCourses)
				courses.POST("", h.Course.CreateCourse)
				courses.GET("/:id", h.Course.GetCourse)
				courses.PUT("/:id", h.Course.UpdateCourse)
				courses.DELETE("/:id", h.Course.DeleteCourse)
				courses.GET("/:id/next", h.Course.NextOccurrence)
				courses.GET("/:id/occurrences", h.Course.ListOccurrences)
			}

			// 首页倒计时
			authorized.GET("/upcoming", h.Upcoming.GetUpcoming)

			// 日历同步
			calendar := authorized.Group("/calendar")
			{
				calendar.POST("/sync", middleware.RateLimit(limiter, 6, time.Minute), h.Calendar.Sync)
				calendar.GET("/events", h.Calendar.ListEvents)
				calendar.GET("/feed.ics", h.Calendar.Feed)
			}

			// 用户偏好
			authorized.GET("/settings", h.Setting.GetSettings)
			authorized.PUT("/settings", h.Setting.UpdateSettings)

			// 已触发提醒
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.ListNotifications)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
			}
		}
	}

	return r
}
