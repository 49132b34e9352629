package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/nhatro/internal/db"
	"github.com/nhatro/internal/service"
)

// userView 过滤掉密码哈希后的用户公开视图
func userView(user *db.User) gin.H {
	return gin.H{
		"id":          user.ID,
		"email":       user.Email,
		"fullName":    user.FullName,
		"phoneNumber": user.PhoneNumber,
		"avatar":      user.Avatar,
		"role":        user.Role,
		"createdAt":   user.CreatedAt,
	}
}

// Register 注册新账号并建立登录会话
func (a *API) Register(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required"`
		Password    string `json:"password" binding:"required"`
		FullName    string `json:"fullName"`
		PhoneNumber string `json:"phoneNumber"`
		Role        string `json:"role"`
	}
	if !bindJSON(c, &req, "邮箱与密码不能为空") {
		return
	}

	// 注册入口不允许直接创建管理员
	role := db.UserRole(req.Role)
	if role == db.RoleAdmin {
		role = db.RoleTenant
	}

	user, err := a.users.Register(service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Role:        role,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserExists):
			respondError(c, http.StatusBadRequest, "邮箱或手机号已被注册")
		case errors.Is(err, service.ErrInvalidRole):
			respondError(c, http.StatusBadRequest, "无效的用户角色")
		default:
			respondError(c, http.StatusInternalServerError, "注册失败")
		}
		return
	}

	if !a.establishSession(c, user) {
		return
	}
	respondData(c, http.StatusCreated, gin.H{"message": "注册成功", "data": userView(user)})
}

// Login 登录并写入会话
func (a *API) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &req, "缺少邮箱或密码") {
		return
	}

	user, err := a.users.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "邮箱或密码不正确")
			return
		}
		respondError(c, http.StatusInternalServerError, "登录失败")
		return
	}

	if !a.establishSession(c, user) {
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "登录成功", "data": userView(user)})
}

// Logout 清除登录会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "退出登录失败")
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "已退出登录"})
}

// GetMyProfile 获取当前登录用户资料
func (a *API) GetMyProfile(c *gin.Context) {
	callerID, _, ok := currentIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
		return
	}

	user, err := a.users.Get(callerID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "用户不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取用户资料失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"data": userView(user)})
}

// UpdateMyProfile 更新当前登录用户资料。角色与密码不可经此接口修改。
func (a *API) UpdateMyProfile(c *gin.Context) {
	callerID, _, ok := currentIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
		return
	}

	var req struct {
		FullName    *string `json:"fullName"`
		PhoneNumber *string `json:"phoneNumber"`
	}
	if !bindJSON(c, &req, "请求体格式不正确") {
		return
	}

	user, err := a.users.UpdateProfile(callerID, service.ProfilePatch{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "用户不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "更新资料失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "资料更新成功", "data": userView(user)})
}

// UploadAvatar 上传头像并更新资料
func (a *API) UploadAvatar(c *gin.Context) {
	callerID, _, ok := currentIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
		return
	}

	header, err := c.FormFile("avatar")
	if err != nil {
		respondError(c, http.StatusBadRequest, "未找到上传的头像文件")
		return
	}

	url, err := a.storeImage(c, header, "nhatro/avatars")
	if err != nil {
		a.respondUploadError(c, err)
		return
	}

	user, err := a.users.UpdateProfile(callerID, service.ProfilePatch{Avatar: &url})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "更新头像失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "头像更新成功", "data": userView(user)})
}

// ToggleSavedArticle 收藏/取消收藏房源
func (a *API) ToggleSavedArticle(c *gin.Context) {
	callerID, _, ok := currentIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
		return
	}

	var req struct {
		ArticleID uint `json:"articleID" binding:"required"`
	}
	if !bindJSON(c, &req, "缺少房源ID") {
		return
	}

	saved, err := a.users.ToggleSaved(callerID, req.ArticleID)
	if err != nil {
		if errors.Is(err, service.ErrArticleNotFound) {
			respondError(c, http.StatusNotFound, "房源不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "收藏操作失败")
		return
	}

	message := "已取消收藏"
	if saved {
		message = "收藏成功"
	}
	respondData(c, http.StatusOK, gin.H{"message": message, "saved": saved})
}

// GetSavedArticles 获取当前用户收藏的房源列表
func (a *API) GetSavedArticles(c *gin.Context) {
	callerID, _, ok := currentIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
		return
	}

	items, err := a.users.SavedArticles(callerID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "用户不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取收藏列表失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"data": items})
}

func (a *API) establishSession(c *gin.Context, user *db.User) bool {
	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionRoleKey, string(user.Role))
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "建立会话失败")
		return false
	}
	return true
}
