package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nhatro/internal/db"
	"github.com/nhatro/internal/service"
)

// CreateComment 租客对房源发起互动：预约看房留言或点击拨号。
func (a *API) CreateComment(c *gin.Context) {
	articleID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的房源ID")
		return
	}

	callerID, _, ok := currentIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
		return
	}

	var req struct {
		Type      string `json:"type" binding:"required"`
		Content   string `json:"content"`
		GuestName string `json:"guestName"`
	}
	if !bindJSON(c, &req, "缺少互动类型") {
		return
	}

	view, err := a.comments.Create(service.CommentInput{
		ArticleID: articleID,
		UserID:    callerID,
		Type:      db.CommentType(req.Type),
		Content:   req.Content,
		GuestName: req.GuestName,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCommentType):
			respondError(c, http.StatusBadRequest, "无效的互动类型")
		case errors.Is(err, service.ErrArticleNotFound):
			respondError(c, http.StatusNotFound, "房源不存在")
		case errors.Is(err, service.ErrMissingFields):
			respondError(c, http.StatusBadRequest, "缺少必填字段")
		default:
			respondError(c, http.StatusInternalServerError, "记录互动失败")
		}
		return
	}

	respondData(c, http.StatusCreated, gin.H{"message": "互动已记录", "data": view})
}

// GetArticleComments 查看房源的互动记录，仅房源作者或管理员可见。
func (a *API) GetArticleComments(c *gin.Context) {
	articleID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的房源ID")
		return
	}

	callerID, callerRole, ok := currentIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
		return
	}

	views, err := a.comments.ListForArticle(articleID, callerID, callerRole)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrArticleNotFound):
			respondError(c, http.StatusNotFound, "房源不存在")
		case errors.Is(err, service.ErrForbidden):
			respondError(c, http.StatusForbidden, "无权查看该房源的互动记录")
		default:
			respondError(c, http.StatusInternalServerError, "获取互动记录失败")
		}
		return
	}

	respondData(c, http.StatusOK, gin.H{"data": views})
}

// DeleteComment 删除互动记录，留言者本人或管理员可操作。
func (a *API) DeleteComment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的记录ID")
		return
	}

	callerID, callerRole, ok := currentIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
		return
	}

	if err := a.comments.Delete(id, callerID, callerRole); err != nil {
		switch {
		case errors.Is(err, service.ErrCommentNotFound):
			respondError(c, http.StatusNotFound, "互动记录不存在")
		case errors.Is(err, service.ErrForbidden):
			respondError(c, http.StatusForbidden, "无权删除该记录")
		default:
			respondError(c, http.StatusInternalServerError, "删除互动记录失败")
		}
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "互动记录已删除", "id": id})
}
