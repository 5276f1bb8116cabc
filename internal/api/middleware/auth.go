package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/post-discovery/pkg/response"
)

// CtxUserID gin 上下文中请求者身份的键
const CtxUserID = "user_id"

// Auth 解析请求者身份：网关透传的 X-User-ID 头优先，
// 其次是 Bearer JWT 的 sub 声明（配置了密钥时）。两者皆无则 401。
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader("X-User-ID"); id != "" {
			c.Set(CtxUserID, id)
			c.Next()
			return
		}
		if jwtSecret != "" {
			authz := c.GetHeader("Authorization")
			if tokenStr, ok := strings.CutPrefix(authz, "Bearer "); ok {
				token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, jwt.ErrSignatureInvalid
					}
					return []byte(jwtSecret), nil
				})
				if err == nil && token.Valid {
					if sub, _ := token.Claims.GetSubject(); sub != "" {
						c.Set(CtxUserID, sub)
						c.Next()
						return
					}
				}
			}
		}
		response.Unauthorized(c)
	}
}
