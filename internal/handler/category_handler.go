package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nhatro/internal/service"
)

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ParentID    *uint  `json:"parentID"`
}

// categoryPatchRequest 的字段均为可选，缺省字段保持不变；
// parentID 传 0 表示脱离父级成为顶级分类。
type categoryPatchRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ParentID    *uint   `json:"parentID"`
}

// GetCategories 获取区域分类列表
func (a *API) GetCategories(c *gin.Context) {
	categories, err := a.categories.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取分类列表失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"data": categories})
}

// GetCategory 获取分类详情
func (a *API) GetCategory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的分类ID")
		return
	}

	category, err := a.categories.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			respondError(c, http.StatusNotFound, "分类不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取分类失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"data": category})
}

// CreateCategory 创建区域分类
func (a *API) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req, "分类名称不能为空") {
		return
	}

	category, err := a.categories.Create(service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
	})
	if err != nil {
		a.respondCategoryError(c, err, "创建分类失败")
		return
	}

	respondData(c, http.StatusCreated, gin.H{"message": "分类创建成功", "data": category})
}

// UpdateCategory 更新分类，父级调整时校验不形成环
func (a *API) UpdateCategory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的分类ID")
		return
	}

	var req categoryPatchRequest
	if !bindJSON(c, &req, "请求体格式不正确") {
		return
	}

	patch := service.CategoryPatch{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.ParentID != nil {
		if *req.ParentID == 0 {
			var none *uint
			patch.ParentID = &none
		} else {
			parent := *req.ParentID
			target := &parent
			patch.ParentID = &target
		}
	}

	category, err := a.categories.Update(id, patch)
	if err != nil {
		a.respondCategoryError(c, err, "更新分类失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "分类更新成功", "data": category})
}

// DeleteCategory 删除分类。仍有房源引用时需通过 reassignTo 指定迁移目标。
func (a *API) DeleteCategory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的分类ID")
		return
	}

	var reassignTo *uint
	if raw := strings.TrimSpace(c.Query("reassignTo")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 32); err == nil {
			converted := uint(parsed)
			reassignTo = &converted
		}
	}

	if err := a.categories.Delete(id, reassignTo); err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			respondError(c, http.StatusNotFound, "分类不存在")
		case errors.Is(err, service.ErrCategoryInUse):
			respondError(c, http.StatusBadRequest, "分类下仍有房源，请先指定迁移目标")
		default:
			respondError(c, http.StatusInternalServerError, "删除分类失败")
		}
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "分类删除成功", "id": id})
}

func (a *API) respondCategoryError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrCategoryExists):
		respondError(c, http.StatusBadRequest, "分类名已存在")
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(c, http.StatusNotFound, "分类不存在")
	case errors.Is(err, service.ErrCategoryCycle):
		respondError(c, http.StatusBadRequest, "父级设置会形成循环")
	default:
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
