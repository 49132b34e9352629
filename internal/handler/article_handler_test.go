package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/nhatro/internal/db"
	"github.com/nhatro/internal/service"
	"github.com/nhatro/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupArticleHandlerTest(t *testing.T) (*gin.Engine, *API, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:article-handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&db.User{}, &db.Category{}, &db.Tag{}, &db.Article{}, &db.Comment{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	api := NewAPI(gdb, storage.NewLocalStore(t.TempDir(), "/uploads"))

	r := gin.New()
	r.Use(sessions.Sessions("nhatro_session", cookie.NewStore([]byte("test-secret"))))
	r.POST("/api/users/login", api.Login)
	r.GET("/api/articles", OptionalAuth(), api.ListArticles)
	r.GET("/api/articles/:id", OptionalAuth(), api.GetArticle)
	r.PATCH("/api/articles/:id/approve", AuthRequired(), RoleRequired(db.RoleAdmin), api.ApproveArticle)

	return r, api, gdb
}

// registerAndLogin 通过服务层创建账号（注册接口不允许直接创建管理员），
// 再走登录接口拿到会话 Cookie。
func registerAndLogin(t *testing.T, r *gin.Engine, gdb *gorm.DB, email string, role db.UserRole) []*http.Cookie {
	t.Helper()

	if _, err := service.NewUserService(gdb).Register(service.RegisterInput{
		Email:    email,
		Password: "test-password",
		Role:     role,
	}); err != nil {
		t.Fatalf("register %s: %v", email, err)
	}

	body, _ := json.Marshal(map[string]string{"email": email, "password": "test-password"})
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	return rec.Result().Cookies()
}

func seedHandlerArticle(t *testing.T, gdb *gorm.DB, title string, status db.ArticleStatus) *db.Article {
	t.Helper()

	owner := db.User{Email: title + "@example.com", HashedPassword: "x", Role: db.RoleLandlord}
	if err := gdb.Create(&owner).Error; err != nil {
		t.Fatalf("create owner: %v", err)
	}

	category, err := service.NewCategoryService(gdb).Create(service.CategoryInput{Name: "Khu " + title})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	article, err := service.NewArticleService(gdb).Create(service.ArticleInput{
		Title:      title,
		Content:    "nội dung mô tả",
		Summary:    "địa chỉ rút gọn",
		Price:      2_500_000,
		Area:       22,
		CategoryID: category.ID,
		AuthorID:   owner.ID,
		Status:     status,
	})
	if err != nil {
		t.Fatalf("create article %q: %v", title, err)
	}
	return article
}

type listResponse struct {
	Success bool                     `json:"success"`
	Data    []service.ArticleSummary `json:"data"`
	Meta    service.PageMeta         `json:"meta"`
}

func TestListArticlesDefaultsToPublished(t *testing.T) {
	r, _, gdb := setupArticleHandlerTest(t)

	published := seedHandlerArticle(t, gdb, "phong-da-duyet", db.StatusPublished)
	seedHandlerArticle(t, gdb, "phong-cho-duyet", db.StatusPending)

	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}

	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success envelope")
	}
	if resp.Meta.Total != 1 || len(resp.Data) != 1 {
		t.Fatalf("expected only the published article, got total=%d items=%d", resp.Meta.Total, len(resp.Data))
	}
	if resp.Data[0].ID != published.ID {
		t.Fatalf("expected article %d, got %d", published.ID, resp.Data[0].ID)
	}
}

func TestListArticlesExplicitStatusOverridesDefault(t *testing.T) {
	r, _, gdb := setupArticleHandlerTest(t)

	seedHandlerArticle(t, gdb, "phong-da-duyet", db.StatusPublished)
	pending := seedHandlerArticle(t, gdb, "phong-cho-duyet", db.StatusPending)

	req := httptest.NewRequest(http.MethodGet, "/api/articles?status=Pending", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Meta.Total != 1 || resp.Data[0].ID != pending.ID {
		t.Fatalf("expected only the pending article, got %+v", resp.Data)
	}
}

func TestListArticlesMalformedStatusFallsBackToPublished(t *testing.T) {
	r, _, gdb := setupArticleHandlerTest(t)

	published := seedHandlerArticle(t, gdb, "phong-da-duyet", db.StatusPublished)
	seedHandlerArticle(t, gdb, "phong-cho-duyet", db.StatusPending)
	seedHandlerArticle(t, gdb, "phong-bi-an", db.StatusHidden)

	// 非法或为空的 status 参数不得绕过 Published 默认值
	for _, target := range []string{"/api/articles?status=Bogus", "/api/articles?status="} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d body %s", target, rec.Code, rec.Body.String())
		}

		var resp listResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: decode response: %v", target, err)
		}
		if resp.Meta.Total != 1 || len(resp.Data) != 1 {
			t.Fatalf("%s: expected only the published article, got total=%d items=%d", target, resp.Meta.Total, len(resp.Data))
		}
		if resp.Data[0].ID != published.ID {
			t.Fatalf("%s: expected article %d, got %d", target, published.ID, resp.Data[0].ID)
		}
	}
}

func TestGetArticleNotFound(t *testing.T) {
	r, _, _ := setupArticleHandlerTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/articles/99999", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success || resp.Error == "" {
		t.Fatalf("expected error envelope, got %+v", resp)
	}
}

func TestApproveArticleRequiresAdmin(t *testing.T) {
	r, _, gdb := setupArticleHandlerTest(t)

	article := seedHandlerArticle(t, gdb, "phong-cho-duyet", db.StatusPending)

	// 未登录
	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/articles/%d/approve", article.ID), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}

	// 普通租客登录
	tenantCookies := registerAndLogin(t, r, gdb, "tenant@example.com", db.RoleTenant)
	req = httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/articles/%d/approve", article.ID), nil)
	for _, c := range tenantCookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for tenant, got %d", rec.Code)
	}
}

func TestApproveArticleConflictWhenPublished(t *testing.T) {
	r, _, gdb := setupArticleHandlerTest(t)

	article := seedHandlerArticle(t, gdb, "phong-cho-duyet", db.StatusPending)
	adminCookies := registerAndLogin(t, r, gdb, "admin@example.com", db.RoleAdmin)

	approve := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/articles/%d/approve", article.ID), nil)
		for _, c := range adminCookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := approve(); rec.Code != http.StatusOK {
		t.Fatalf("first approve: status %d body %s", rec.Code, rec.Body.String())
	}
	if rec := approve(); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on repeated approve, got %d", rec.Code)
	}
}
