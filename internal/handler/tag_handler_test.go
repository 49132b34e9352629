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

func setupTagHandlerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:tag-handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	r.GET("/api/tags", api.GetTags)
	r.POST("/api/tags", AuthRequired(), RoleRequired(db.RoleAdmin), api.CreateTag)
	r.DELETE("/api/tags/:id", AuthRequired(), api.DeleteTag)

	return r, gdb
}

func TestGetTagsFiltersByType(t *testing.T) {
	r, gdb := setupTagHandlerTest(t)

	tags := service.NewTagService(gdb)
	if _, err := tags.Create("Wifi", db.TagTypeAmenity); err != nil {
		t.Fatalf("create amenity: %v", err)
	}
	if _, err := tags.Create("Nhà nguyên căn", db.TagTypeRoomKind); err != nil {
		t.Fatalf("create room kind: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tags?type=tien-ich", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool     `json:"success"`
		Data    []db.Tag `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Name != "Wifi" {
		t.Fatalf("unexpected filtered tags: %+v", resp.Data)
	}

	// 未知类别直接 400
	req = httptest.NewRequest(http.MethodGet, "/api/tags?type=bogus", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", rec.Code)
	}
}

func TestCreateTagRequiresAdminRole(t *testing.T) {
	r, gdb := setupTagHandlerTest(t)

	cookies := registerAndLogin(t, r, gdb, "tenant@example.com", db.RoleTenant)

	body, _ := json.Marshal(map[string]string{"name": "Wifi"})
	req := httptest.NewRequest(http.MethodPost, "/api/tags", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for tenant, got %d", rec.Code)
	}
}

func TestDeleteTagResponse(t *testing.T) {
	r, gdb := setupTagHandlerTest(t)

	tag, err := service.NewTagService(gdb).Create("Wifi", db.TagTypeAmenity)
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}

	cookies := registerAndLogin(t, r, gdb, "admin@example.com", db.RoleAdmin)

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/tags/%d", tag.ID), nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		ID      uint   `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.ID != tag.ID {
		t.Fatalf("unexpected delete response: %+v", resp)
	}

	// 再删一次 404
	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/tags/%d", tag.ID), nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeated delete, got %d", rec.Code)
	}
}
