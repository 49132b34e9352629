package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nhatro/internal/db"
	"github.com/nhatro/internal/service"
)

// ListArticles 获取房源列表（公开）。
// 未能解析出合法 status（缺失、为空或非法值）时默认只返回 Published，
// 避免非公开房源泄漏到前台。
func (a *API) ListArticles(c *gin.Context) {
	query := service.ParseListingQuery(c.Request.URL.Query())
	if query.Status == "" {
		query.Status = db.StatusPublished
	}

	page, err := a.articles.List(query, viewerID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取房源列表失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"data": page.Items, "meta": page.Meta})
}

// MyArticles 获取当前登录用户发布的房源，作者过滤不可被查询参数覆盖。
func (a *API) MyArticles(c *gin.Context) {
	callerID, _, ok := currentIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
		return
	}

	query := service.ParseListingQuery(c.Request.URL.Query())
	page, err := a.articles.ListMine(callerID, query)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取我的房源失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"data": page.Items, "meta": page.Meta})
}

// GetArticle 获取房源详情
func (a *API) GetArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的房源ID")
		return
	}

	detail, err := a.articles.Get(id, viewerID(c))
	if err != nil {
		if errors.Is(err, service.ErrArticleNotFound) {
			respondError(c, http.StatusNotFound, "房源不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取房源详情失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"data": detail})
}

// CreateArticle 创建房源。multipart 表单：文本字段 + thumbnail(1张) + images(≤10张)。
func (a *API) CreateArticle(c *gin.Context) {
	callerID, _, ok := currentIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
		return
	}

	input := service.ArticleInput{
		Title:    c.PostForm("title"),
		Content:  c.PostForm("content"),
		Summary:  c.PostForm("summary"),
		AuthorID: callerID,
	}

	if price, err := strconv.ParseInt(strings.TrimSpace(c.PostForm("price")), 10, 64); err == nil {
		input.Price = price
	}
	if area, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("area")), 64); err == nil {
		input.Area = area
	}
	if categoryID, err := strconv.ParseUint(strings.TrimSpace(c.PostForm("categoryID")), 10, 32); err == nil {
		input.CategoryID = uint(categoryID)
	}
	input.TagIDs = parseUintQuerySlice(c.PostFormArray("tags"))
	if status := db.ArticleStatus(strings.TrimSpace(c.PostForm("status"))); status.Valid() {
		input.Status = status
	}

	if !a.collectUploads(c, &input.Thumbnail, &input.Images) {
		return
	}

	article, err := a.articles.Create(input)
	if err != nil {
		a.respondArticleError(c, err, "创建房源失败")
		return
	}

	respondData(c, http.StatusCreated, gin.H{"message": "房源创建成功", "data": article})
}

// UpdateArticle 部分更新房源，仅作者或管理员可操作。
func (a *API) UpdateArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的房源ID")
		return
	}

	callerID, callerRole, ok := currentIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
		return
	}

	var patch service.ArticlePatch
	if value, exists := c.GetPostForm("title"); exists {
		patch.Title = &value
	}
	if value, exists := c.GetPostForm("content"); exists {
		patch.Content = &value
	}
	if value, exists := c.GetPostForm("summary"); exists {
		patch.Summary = &value
	}
	if value, exists := c.GetPostForm("price"); exists {
		if price, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			patch.Price = &price
		}
	}
	if value, exists := c.GetPostForm("area"); exists {
		if area, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			patch.Area = &area
		}
	}
	if value, exists := c.GetPostForm("categoryID"); exists {
		if categoryID, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32); err == nil {
			converted := uint(categoryID)
			patch.CategoryID = &converted
		}
	}
	if values, exists := c.GetPostFormArray("tags"); exists {
		ids := parseUintQuerySlice(values)
		patch.TagIDs = &ids
	}

	var thumbnail string
	var images []string
	if !a.collectUploads(c, &thumbnail, &images) {
		return
	}
	if thumbnail != "" {
		patch.Thumbnail = &thumbnail
	}
	if len(images) > 0 {
		patch.Images = &images
	}

	article, err := a.articles.Update(id, patch, callerID, callerRole)
	if err != nil {
		a.respondArticleError(c, err, "更新房源失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "房源更新成功", "data": article})
}

// ApproveArticle 管理员审核通过，房源状态置为 Published。
func (a *API) ApproveArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的房源ID")
		return
	}

	article, err := a.articles.Approve(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrArticleNotFound):
			respondError(c, http.StatusNotFound, "房源不存在")
		case errors.Is(err, service.ErrAlreadyPublished):
			respondError(c, http.StatusConflict, "该房源已审核通过")
		default:
			respondError(c, http.StatusInternalServerError, "审核房源失败")
		}
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "审核通过", "data": article})
}

// SetArticleStatus 显式变更房源状态（如标记已出租/隐藏）。
func (a *API) SetArticleStatus(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的房源ID")
		return
	}

	callerID, callerRole, ok := currentIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if !bindJSON(c, &req, "缺少目标状态") {
		return
	}

	article, err := a.articles.SetStatus(id, db.ArticleStatus(req.Status), callerID, callerRole)
	if err != nil {
		a.respondArticleError(c, err, "变更房源状态失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "状态已更新", "data": article})
}

// DeleteArticle 硬删除房源，仅作者或管理员可操作。
func (a *API) DeleteArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的房源ID")
		return
	}

	callerID, callerRole, ok := currentIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
		return
	}

	if err := a.articles.Delete(id, callerID, callerRole); err != nil {
		a.respondArticleError(c, err, "删除房源失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"message": "房源已删除", "id": id})
}

// collectUploads 处理 multipart 中的 thumbnail 与 images 字段。
// 返回 false 表示已写入错误响应。
func (a *API) collectUploads(c *gin.Context, thumbnail *string, images *[]string) bool {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		// 纯文本表单，没有附带文件
		return true
	}

	if headers := form.File["thumbnail"]; len(headers) > 0 {
		url, err := a.storeImage(c, headers[0], thumbnailFolder)
		if err != nil {
			a.respondUploadError(c, err)
			return false
		}
		*thumbnail = url
	}

	if headers := form.File["images"]; len(headers) > 0 {
		urls, err := a.storeDetailImages(c, headers)
		if err != nil {
			a.respondUploadError(c, err)
			return false
		}
		*images = urls
	}

	return true
}

func (a *API) respondUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errNotAnImage):
		respondError(c, http.StatusBadRequest, "只允许上传图片文件")
	case errors.Is(err, errImageTooBig):
		respondError(c, http.StatusBadRequest, "图片大小超出限制")
	case errors.Is(err, errTooManyFiles):
		respondError(c, http.StatusBadRequest, "详情图最多上传10张")
	default:
		respondError(c, http.StatusInternalServerError, "图片上传失败")
	}
}

func (a *API) respondArticleError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrArticleNotFound):
		respondError(c, http.StatusNotFound, "房源不存在")
	case errors.Is(err, service.ErrForbidden):
		respondError(c, http.StatusForbidden, "无权操作该房源")
	case errors.Is(err, service.ErrMissingFields):
		respondError(c, http.StatusBadRequest, "缺少必填字段")
	case errors.Is(err, service.ErrInvalidPrice):
		respondError(c, http.StatusBadRequest, "价格不能为负数")
	case errors.Is(err, service.ErrInvalidArea):
		respondError(c, http.StatusBadRequest, "面积必须为正数")
	case errors.Is(err, service.ErrInvalidStatus):
		respondError(c, http.StatusBadRequest, "无效的房源状态")
	case errors.Is(err, service.ErrTooManyImages):
		respondError(c, http.StatusBadRequest, "详情图最多上传10张")
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(c, http.StatusBadRequest, "所选区域分类不存在")
	case errors.Is(err, service.ErrTagNotFound):
		respondError(c, http.StatusBadRequest, "存在无效的标签")
	default:
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
