package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/config"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/api/handler"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/internal/api/middleware"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/pkg/jwt"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(5 << 20)) // ICS 文件上限 5MB

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证；注册登录加速率限制防爆破）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 10, time.Minute))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 课表模块
			timetable := authorized.Group("/timetable")
			{
				timetable.PUT("/courses", h.Timetable.ReplaceCourses)
				timetable.GET("/courses", h.Timetable.MyCourses)
				timetable.POST("/ics", h.Timetable.ImportICS)
				timetable.GET("/encode-preview", h.Timetable.EncodePreview)
			}

			// 拼空闲模块
			sync := authorized.Group("/sync")
			{
				sync.POST("/sessions/resolve", h.Session.Resolve)
				sync.GET("/sessions/public", h.Session.ListPublic)
				sync.GET("/sessions/:code", h.Session.Get)
				sync.PUT("/sessions/:code/visibility", h.Session.SetVisibility)
				sync.DELETE("/sessions/:code", h.Session.Disband)
				sync.DELETE("/sessions/:code/members/me", h.Session.Leave)

				// 邀请码
				sync.POST("/sessions/:code/invites", h.Invite.Issue)

				// 成员名单
				sync.POST("/sessions/:code/slots", h.Roster.Publish)
				sync.GET("/sessions/:code/roster", h.Roster.Snapshot)
				sync.GET("/sessions/:code/roster/subscribe", h.Roster.Subscribe)

				// 分享文件
				sync.POST("/shares/import", h.Share.Import)
				sync.GET("/sessions/:code/share", h.Share.Export)

				// 共同空闲
				sync.GET("/sessions/:code/freetime", h.FreeTime.Intersect)
				sync.GET("/sessions/:code/freetime/week", h.FreeTime.WeekView)
				sync.GET("/sessions/:code/freetime/export", h.FreeTime.Export)
			}
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
