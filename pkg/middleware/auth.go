package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"SentriSafe/pkg/response"
)

// SessionUserKey 会话中保存用户ID的键
const SessionUserKey = "user_id"

// ContextUserKey gin 上下文中保存用户ID的键
const ContextUserKey = "current_user_id"

// AuthRequired 会话鉴权中间件，未登录时返回 401
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		uid := session.Get(SessionUserKey)
		if uid == nil {
			response.Unauthorized(c, "login required")
			c.Abort()
			return
		}
		c.Set(ContextUserKey, uid)
		c.Next()
	}
}

// CurrentUserID 从上下文取当前用户ID，未登录返回 0
func CurrentUserID(c *gin.Context) uint {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return 0
	}
	switch id := v.(type) {
	case uint:
		return id
	case int64:
		return uint(id)
	case int:
		return uint(id)
	}
	return 0
}
