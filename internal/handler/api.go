package handler

import (
	"github.com/nhatro/internal/service"
	"github.com/nhatro/internal/storage"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	articles   *service.ArticleService
	tags       *service.TagService
	categories *service.CategoryService
	users      *service.UserService
	comments   *service.CommentService
	store      storage.ObjectStore
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, store storage.ObjectStore) *API {
	return &API{
		db:         gdb,
		articles:   service.NewArticleService(gdb),
		tags:       service.NewTagService(gdb),
		categories: service.NewCategoryService(gdb),
		users:      service.NewUserService(gdb),
		comments:   service.NewCommentService(gdb),
		store:      store,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}
