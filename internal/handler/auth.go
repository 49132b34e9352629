package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/nhatro/internal/db"
)

// 会话与请求上下文中的身份键
const (
	sessionUserIDKey = "userID"
	sessionRoleKey   = "userRole"

	ctxUserIDKey = "__auth_user_id"
	ctxRoleKey   = "__auth_user_role"
)

// AuthRequired 要求请求携带有效登录会话，否则返回 401。
// 通过后将 {id, role} 写入请求上下文供后续处理函数使用。
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !loadIdentity(c) {
			respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth 尝试读取会话身份但不强制登录，用于公开列表附加收藏标记。
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		loadIdentity(c)
		c.Next()
	}
}

// RoleRequired 在 AuthRequired 之后使用，要求调用方具备指定角色之一。
func RoleRequired(roles ...db.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, role, ok := currentIdentity(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
			c.Abort()
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		respondError(c, http.StatusForbidden, "当前角色无权执行该操作")
		c.Abort()
	}
}

func loadIdentity(c *gin.Context) bool {
	session := sessions.Default(c)

	rawID, okID := session.Get(sessionUserIDKey).(uint)
	rawRole, okRole := session.Get(sessionRoleKey).(string)
	if !okID || !okRole || rawID == 0 {
		return false
	}

	c.Set(ctxUserIDKey, rawID)
	c.Set(ctxRoleKey, db.UserRole(rawRole))
	return true
}

// currentIdentity 返回请求上下文中的调用方身份。
func currentIdentity(c *gin.Context) (uint, db.UserRole, bool) {
	rawID, exists := c.Get(ctxUserIDKey)
	if !exists {
		return 0, "", false
	}
	id, ok := rawID.(uint)
	if !ok || id == 0 {
		return 0, "", false
	}

	rawRole, _ := c.Get(ctxRoleKey)
	role, _ := rawRole.(db.UserRole)
	return id, role, true
}

// viewerID 返回可选登录场景下的浏览者 ID，未登录时为零。
func viewerID(c *gin.Context) uint {
	id, _, _ := currentIdentity(c)
	return id
}
