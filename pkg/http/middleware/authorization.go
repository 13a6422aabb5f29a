package middleware

import (
	"errors"
	"strings"

	"github.com/atriumcrm/atrium/internal/access/consts"
	"github.com/atriumcrm/atrium/pkg/cache"
	"github.com/atriumcrm/atrium/pkg/http"
	"github.com/atriumcrm/atrium/pkg/http/jwt"
	"github.com/atriumcrm/atrium/pkg/log"
	"github.com/gofiber/fiber/v2"
	goJwt "github.com/golang-jwt/jwt/v5"
)

// AuthorizationMiddleware 认证中间件
// secretKey: 用于验证 JWT 的密钥
// redisCache: 会话存在性检查
// This function is used as the middleware of fiber.
func AuthorizationMiddleware(secretKey string, redisCache cache.ICache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		aToken := c.Get("Authorization")
		if aToken == "" {
			return http.WithRepErrMsg(c, http.TokenBeEmpty.Code, http.TokenBeEmpty.Msg, c.Path())
		}

		// 按空格分割
		parts := strings.SplitN(aToken, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return http.WithRepErrMsg(c, http.TokenBeEmpty.Code, http.TokenBeEmpty.Msg, c.Path())
		}

		claims, err := jwt.ParseToken(parts[1], secretKey)
		if err != nil {
			// 检查是否是令牌过期错误
			if errors.Is(err, goJwt.ErrTokenExpired) {
				return http.WithRepErrMsg(c, http.TokenExpired.Code, http.TokenExpired.Msg, c.Path())
			}
			log.Errorf("parse token failed: %v", err)
			// 其他令牌无效的情况
			return http.WithRepErrMsg(c, http.InvalidToken.Code, http.InvalidToken.Msg, c.Path())
		}

		// 检查 Redis 中是否存在会话
		sessionKey := consts.SessionKey + claims.PrincipalId
		exists, err := redisCache.Exists(c.UserContext(), sessionKey).Result()
		if err != nil {
			log.Errorf("redis check session exists failed: %v", err)
			return http.WithRepErrMsg(c, http.InternalError.Code, http.InternalError.Msg, c.Path())
		}
		if exists == 0 {
			return http.WithRepErrMsg(c, http.TokenExpired.Code, http.TokenExpired.Msg, c.Path())
		}

		// 检查 Redis 中的会话是否过期
		ttl, err := redisCache.TTL(c.UserContext(), sessionKey).Result()
		if err != nil {
			log.Errorf("redis check session TTL failed: %v", err)
			return http.WithRepErrMsg(c, http.InternalError.Code, http.InternalError.Msg, c.Path())
		}
		if ttl <= 0 {
			log.Warnf("session has expired in Redis for principal: %s", claims.PrincipalId)
			return http.WithRepErrMsg(c, http.TokenExpired.Code, http.TokenExpired.Msg, c.Path())
		}

		c.Locals("claims", claims)
		return c.Next()
	}
}

// PrincipalFromLocals 从 fiber locals 中取出已认证主体 id
func PrincipalFromLocals(c *fiber.Ctx) string {
	claims, ok := c.Locals("claims").(*jwt.AuthClaims)
	if !ok || claims == nil {
		return ""
	}
	return claims.PrincipalId
}
