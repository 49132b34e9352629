package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nhatro/internal/db"
	"github.com/nhatro/internal/service"
)

type tagRequest struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type"`
}

// GetTags 获取标签列表，可按 type 过滤
func (a *API) GetTags(c *gin.Context) {
	tags, err := a.tags.List(db.TagType(c.Query("type")))
	if err != nil {
		if errors.Is(err, service.ErrInvalidTagType) {
			respondError(c, http.StatusBadRequest, "无效的标签类别")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取标签列表失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"data": tags})
}

// CreateTag 创建新标签
func (a *API) CreateTag(c *gin.Context) {
	var req tagRequest
	if !bindJSON(c, &req, "标签名称不能为空") {
		return
	}

	tag, err := a.tags.Create(req.Name, db.TagType(req.Type))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTagExists):
			respondError(c, http.StatusBadRequest, "标签已存在")
		case errors.Is(err, service.ErrInvalidTagType):
			respondError(c, http.StatusBadRequest, "无效的标签类别")
		default:
			respondError(c, http.StatusInternalServerError, "创建标签失败")
		}
		return
	}

	respondData(c, http.StatusCreated, gin.H{"message": "标签创建成功", "data": tag})
}

// UpdateTag 更新标签
func (a *API) UpdateTag(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的标签ID")
		return
	}

	var req tagRequest
	if !bindJSON(c, &req, "标签名称不能为空") {
		return
	}

	tag, err := a.tags.Update(id, req.Name, db.TagType(req.Type))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTagExists):
			respondError(c, http.StatusBadRequest, "标签名已存在")
		case errors.Is(err, service.ErrTagNotFound):
			respondError(c, http.StatusNotFound, "标签不存在")
		case errors.Is(err, service.ErrInvalidTagType):
			respondError(c, http.StatusBadRequest, "无效的标签类别")
		default:
			respondError(c, http.StatusInternalServerError, "更新标签失败")
		}
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "标签更新成功", "data": tag})
}

// DeleteTag 级联删除标签：标签本身与所有房源中的引用在同一事务内移除。
func (a *API) DeleteTag(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的标签ID")
		return
	}

	if err := a.tags.Delete(id); err != nil {
		if errors.Is(err, service.ErrTagNotFound) {
			respondError(c, http.StatusNotFound, "标签不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "删除标签失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "标签删除成功", "id": id})
}
