package service

import (
	"errors"
	"strings"
	"time"

	"github.com/nhatro/internal/db"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	ErrArticleNotFound  = errors.New("article not found")
	ErrForbidden        = errors.New("caller may not modify this article")
	ErrAlreadyPublished = errors.New("article has already been approved")
	ErrInvalidStatus    = errors.New("invalid article status")
	ErrMissingFields    = errors.New("article is missing required fields")
	ErrInvalidPrice     = errors.New("price must be non-negative")
	ErrInvalidArea      = errors.New("area must be positive")
	ErrTooManyImages    = errors.New("too many detail images")
)

// MaxArticleImages 是单条房源详情图数量的上限。
const MaxArticleImages = 10

// ArticleService wraps rental listing related database operations.
type ArticleService struct {
	db *gorm.DB
}

// NewArticleService creates an ArticleService instance.
func NewArticleService(gdb *gorm.DB) *ArticleService {
	return &ArticleService{db: gdb}
}

// ArticleInput represents fields accepted when creating an article.
type ArticleInput struct {
	Title      string
	Content    string
	Summary    string
	Price      int64
	Area       float64
	Thumbnail  string
	Images     []string
	CategoryID uint
	TagIDs     []uint
	AuthorID   uint
	Status     db.ArticleStatus
}

// ArticlePatch represents the optional fields of a partial update.
// Status 不在其列：状态变更必须走显式操作（Approve / SetStatus）。
type ArticlePatch struct {
	Title      *string
	Content    *string
	Summary    *string
	Price      *int64
	Area       *float64
	Thumbnail  *string
	Images     *[]string
	CategoryID *uint
	TagIDs     *[]uint
}

// CategoryRef 列表项里携带的分类概要
type CategoryRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TagRef 列表项里携带的标签概要
type TagRef struct {
	ID   uint       `json:"id"`
	Name string     `json:"name"`
	Type db.TagType `json:"type"`
}

// AuthorRef 作者的公开信息
type AuthorRef struct {
	ID          uint   `json:"id"`
	FullName    string `json:"fullName"`
	Avatar      string `json:"avatar"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
}

// ArticleSummary 是列表视图的投影，不包含完整描述正文。
type ArticleSummary struct {
	ID        uint             `json:"id"`
	Title     string           `json:"title"`
	Slug      string           `json:"slug"`
	Summary   string           `json:"summary"`
	Price     int64            `json:"price"`
	Area      float64          `json:"area"`
	Thumbnail string           `json:"thumbnail"`
	Images    []string         `json:"images"`
	Status    db.ArticleStatus `json:"status"`
	Category  *CategoryRef     `json:"category,omitempty"`
	Tags      []TagRef         `json:"tags"`
	Author    *AuthorRef       `json:"author,omitempty"`
	IsSaved   bool             `json:"isSaved"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// ArticleDetail 是详情视图，附带正文及渲染后的 HTML。
type ArticleDetail struct {
	ArticleSummary
	Content     string `json:"content"`
	ContentHTML string `json:"contentHTML"`
}

// PageMeta 分页元信息
type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// ListingPage aggregates one page of summaries with pagination meta.
type ListingPage struct {
	Items []ArticleSummary `json:"data"`
	Meta  PageMeta         `json:"meta"`
}

// summaryColumns 是列表查询的投影列，排除 content 以控制响应体积。
var summaryColumns = []string{
	"articles.id", "articles.created_at", "articles.updated_at",
	"articles.title", "articles.slug", "articles.summary",
	"articles.price", "articles.area", "articles.thumbnail",
	"articles.images", "articles.category_id", "articles.author_id",
	"articles.status",
}

// canMutate 是统一的所有权判定：作者本人或管理员可以修改房源。
func canMutate(callerID uint, callerRole db.UserRole, authorID uint) bool {
	return callerID == authorID || callerRole == db.RoleAdmin
}

// List 按筛选条件返回一页房源概要。viewerID 非零时附加收藏标记。
func (s *ArticleService) List(q ListingQuery, viewerID uint) (*ListingPage, error) {
	return s.list(q, viewerID, 0)
}

// ListMine 返回指定作者的房源，作者过滤不受调用方查询参数影响。
func (s *ArticleService) ListMine(authorID uint, q ListingQuery) (*ListingPage, error) {
	return s.list(q, authorID, authorID)
}

func (s *ArticleService) list(q ListingQuery, viewerID, forcedAuthorID uint) (*ListingPage, error) {
	page := q.Page
	if page <= 0 {
		page = DefaultPage
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset := (page - 1) * limit

	var (
		articles []db.Article
		total    int64
	)

	// 列表页与总数是两个相互独立的读查询，并发执行；
	// 写入并发时两者可能对应不同时刻的快照，这是接受的权衡。
	var group errgroup.Group
	group.Go(func() error {
		countQuery := s.applyListingFilters(s.db.Model(&db.Article{}), q)
		if forcedAuthorID != 0 {
			countQuery = countQuery.Where("articles.author_id = ?", forcedAuthorID)
		}
		return countQuery.Count(&total).Error
	})
	group.Go(func() error {
		dataQuery := s.applyListingFilters(
			s.db.Model(&db.Article{}).
				Select(summaryColumns).
				Preload("Category").
				Preload("Tags").
				Preload("Author"),
			q,
		)
		if forcedAuthorID != 0 {
			dataQuery = dataQuery.Where("articles.author_id = ?", forcedAuthorID)
		}
		return dataQuery.
			Order(orderClause(q.Sort)).
			Limit(limit).
			Offset(offset).
			Find(&articles).Error
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	items := make([]ArticleSummary, 0, len(articles))
	for i := range articles {
		items = append(items, summarize(&articles[i]))
	}
	s.overlaySaved(items, viewerID)

	result := &ListingPage{
		Items: items,
		Meta: PageMeta{
			Page:  page,
			Limit: limit,
			Total: total,
		},
	}
	result.Meta.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	return result, nil
}

// Get 返回房源详情，包含完整正文与渲染结果。
func (s *ArticleService) Get(id uint, viewerID uint) (*ArticleDetail, error) {
	var article db.Article
	if err := s.db.
		Preload("Category").
		Preload("Tags").
		Preload("Author").
		First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	contentHTML, err := renderContentHTML(article.Content)
	if err != nil {
		return nil, err
	}

	detail := &ArticleDetail{
		ArticleSummary: summarize(&article),
		Content:        article.Content,
		ContentHTML:    contentHTML,
	}
	detail.IsSaved = s.isSaved(viewerID, article.ID)
	return detail, nil
}

// Create 持久化一条新房源，默认进入 Pending 待审核状态。
func (s *ArticleService) Create(input ArticleInput) (*db.Article, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = db.StatusPending
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	if err := s.categoryExists(input.CategoryID); err != nil {
		return nil, err
	}

	article := db.Article{
		Title:      strings.TrimSpace(input.Title),
		Content:    input.Content,
		Summary:    strings.TrimSpace(input.Summary),
		Price:      input.Price,
		Area:       input.Area,
		Thumbnail:  strings.TrimSpace(input.Thumbnail),
		CategoryID: input.CategoryID,
		AuthorID:   input.AuthorID,
		Status:     status,
	}
	if err := article.SetImageList(input.Images); err != nil {
		return nil, err
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		derived, err := uniqueSlug(tx, "articles", article.Title, 0)
		if err != nil {
			return err
		}
		article.Slug = derived

		if err := tx.Create(&article).Error; err != nil {
			return err
		}
		return replaceTags(tx, &article, input.TagIDs)
	}); err != nil {
		return nil, err
	}

	if err := s.db.Preload("Category").Preload("Tags").First(&article, article.ID).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

// Update 对既有房源做部分更新，标题变更时重新派生 slug。
// 先判定记录存在性，再校验所有权。
func (s *ArticleService) Update(id uint, patch ArticlePatch, callerID uint, callerRole db.UserRole) (*db.Article, error) {
	var article db.Article
	if err := s.db.First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	if !canMutate(callerID, callerRole, article.AuthorID) {
		return nil, ErrForbidden
	}

	titleChanged := false
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if trimmed == "" {
			return nil, ErrMissingFields
		}
		if trimmed != article.Title {
			article.Title = trimmed
			titleChanged = true
		}
	}
	if patch.Content != nil {
		if strings.TrimSpace(*patch.Content) == "" {
			return nil, ErrMissingFields
		}
		article.Content = *patch.Content
	}
	if patch.Summary != nil {
		if strings.TrimSpace(*patch.Summary) == "" {
			return nil, ErrMissingFields
		}
		article.Summary = strings.TrimSpace(*patch.Summary)
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return nil, ErrInvalidPrice
		}
		article.Price = *patch.Price
	}
	if patch.Area != nil {
		if *patch.Area <= 0 {
			return nil, ErrInvalidArea
		}
		article.Area = *patch.Area
	}
	if patch.Thumbnail != nil {
		article.Thumbnail = strings.TrimSpace(*patch.Thumbnail)
	}
	if patch.Images != nil {
		if len(*patch.Images) > MaxArticleImages {
			return nil, ErrTooManyImages
		}
		if err := article.SetImageList(*patch.Images); err != nil {
			return nil, err
		}
	}
	if patch.CategoryID != nil {
		if err := s.categoryExists(*patch.CategoryID); err != nil {
			return nil, err
		}
		article.CategoryID = *patch.CategoryID
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if titleChanged {
			derived, err := uniqueSlug(tx, "articles", article.Title, article.ID)
			if err != nil {
				return err
			}
			article.Slug = derived
		}

		if err := tx.Save(&article).Error; err != nil {
			return err
		}

		if patch.TagIDs != nil {
			return replaceTags(tx, &article, *patch.TagIDs)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.db.Preload("Category").Preload("Tags").First(&article, article.ID).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

// Approve 将房源置为 Published。仅拦截重复审核；
// Hidden/Rented 的房源同样允许被重新发布。
func (s *ArticleService) Approve(id uint) (*db.Article, error) {
	var article db.Article
	if err := s.db.First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	if article.Status == db.StatusPublished {
		return nil, ErrAlreadyPublished
	}

	if err := s.db.Model(&article).Update("status", db.StatusPublished).Error; err != nil {
		return nil, err
	}
	article.Status = db.StatusPublished
	return &article, nil
}

// SetStatus 显式变更房源状态（如房东标记 Rented/Hidden），受所有权约束。
func (s *ArticleService) SetStatus(id uint, status db.ArticleStatus, callerID uint, callerRole db.UserRole) (*db.Article, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var article db.Article
	if err := s.db.First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	if !canMutate(callerID, callerRole, article.AuthorID) {
		return nil, ErrForbidden
	}

	if err := s.db.Model(&article).Update("status", status).Error; err != nil {
		return nil, err
	}
	article.Status = status
	return &article, nil
}

// Delete 硬删除房源，并同步清理标签关联、用户收藏引用与互动记录。
func (s *ArticleService) Delete(id uint, callerID uint, callerRole db.UserRole) error {
	var article db.Article
	if err := s.db.First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrArticleNotFound
		}
		return err
	}

	if !canMutate(callerID, callerRole, article.AuthorID) {
		return ErrForbidden
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM article_tags WHERE article_id = ?", article.ID).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_saved_articles WHERE article_id = ?", article.ID).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("article_id = ?", article.ID).Delete(&db.Comment{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&article).Error
	})
}

func (s *ArticleService) applyListingFilters(query *gorm.DB, q ListingQuery) *gorm.DB {
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		query = query.Where("(LOWER(articles.title) LIKE ? OR LOWER(articles.summary) LIKE ?)", like, like)
	}

	if q.CategoryID != 0 {
		query = query.Where("articles.category_id = ?", q.CategoryID)
	}

	if len(q.TagIDs) > 0 {
		subQuery := s.db.Table("article_tags").
			Select("article_tags.article_id").
			Where("article_tags.tag_id IN ?", q.TagIDs).
			Distinct()
		query = query.Where("articles.id IN (?)", subQuery)
	}

	if q.MinPrice != nil {
		query = query.Where("articles.price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		query = query.Where("articles.price <= ?", *q.MaxPrice)
	}
	if q.MinArea != nil {
		query = query.Where("articles.area >= ?", *q.MinArea)
	}
	if q.MaxArea != nil {
		query = query.Where("articles.area <= ?", *q.MaxArea)
	}

	if q.Status != "" {
		query = query.Where("articles.status = ?", q.Status)
	}

	return query
}

func orderClause(sort string) string {
	switch sort {
	case SortOldest:
		return "articles.created_at asc, articles.id asc"
	case SortPriceAsc:
		return "articles.price asc, articles.id asc"
	case SortPriceDesc:
		return "articles.price desc, articles.id desc"
	default:
		return "articles.created_at desc, articles.id desc"
	}
}

func summarize(article *db.Article) ArticleSummary {
	summary := ArticleSummary{
		ID:        article.ID,
		Title:     article.Title,
		Slug:      article.Slug,
		Summary:   article.Summary,
		Price:     article.Price,
		Area:      article.Area,
		Thumbnail: article.Thumbnail,
		Images:    article.ImageList(),
		Status:    article.Status,
		Tags:      make([]TagRef, 0, len(article.Tags)),
		CreatedAt: article.CreatedAt,
		UpdatedAt: article.UpdatedAt,
	}

	if article.Category.ID != 0 {
		summary.Category = &CategoryRef{
			ID:   article.Category.ID,
			Name: article.Category.Name,
			Slug: article.Category.Slug,
		}
	}
	for _, tag := range article.Tags {
		summary.Tags = append(summary.Tags, TagRef{ID: tag.ID, Name: tag.Name, Type: tag.Type})
	}
	if article.Author.ID != 0 {
		summary.Author = &AuthorRef{
			ID:          article.Author.ID,
			FullName:    article.Author.FullName,
			Avatar:      article.Author.Avatar,
			PhoneNumber: article.Author.PhoneNumber,
			Email:       article.Author.Email,
		}
	}
	return summary
}

// replaceTags 校验标签存在性后整体替换关联。
func replaceTags(tx *gorm.DB, article *db.Article, tagIDs []uint) error {
	var tags []db.Tag
	if len(tagIDs) > 0 {
		if err := tx.Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
			return err
		}
		if len(tags) != len(tagIDs) {
			return ErrTagNotFound
		}
	}
	return tx.Model(article).Association("Tags").Replace(tags)
}

func (s *ArticleService) categoryExists(id uint) error {
	var count int64
	if err := s.db.Model(&db.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func validateInput(input ArticleInput) error {
	if strings.TrimSpace(input.Title) == "" ||
		strings.TrimSpace(input.Content) == "" ||
		strings.TrimSpace(input.Summary) == "" {
		return ErrMissingFields
	}
	if input.CategoryID == 0 || input.AuthorID == 0 {
		return ErrMissingFields
	}
	if input.Price < 0 {
		return ErrInvalidPrice
	}
	if input.Area <= 0 {
		return ErrInvalidArea
	}
	if len(input.Images) > MaxArticleImages {
		return ErrTooManyImages
	}
	return nil
}
