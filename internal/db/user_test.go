package db

import (
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupUserModelTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:user-model-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&User{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return gdb
}

func TestComparePassword(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := User{HashedPassword: string(hashed)}
	if !user.ComparePassword("correct-horse") {
		t.Fatal("expected matching password to verify")
	}
	if user.ComparePassword("battery-staple") {
		t.Fatal("expected mismatched password to fail")
	}
}

func TestEnsureAdminCreatesOnce(t *testing.T) {
	gdb := setupUserModelTestDB(t)

	original := DB
	DB = gdb
	t.Cleanup(func() { DB = original })

	if err := EnsureAdmin("Admin@Example.com", "admin-password"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}

	var admin User
	if err := gdb.Where("email = ?", "admin@example.com").First(&admin).Error; err != nil {
		t.Fatalf("load admin: %v", err)
	}
	if admin.Role != RoleAdmin {
		t.Fatalf("expected Admin role, got %s", admin.Role)
	}
	if !admin.ComparePassword("admin-password") {
		t.Fatal("admin password hash does not verify")
	}

	// 再次调用不重复创建，也不改动既有账号
	if err := EnsureAdmin("admin@example.com", "different-password"); err != nil {
		t.Fatalf("second ensure admin: %v", err)
	}

	var count int64
	if err := gdb.Model(&User{}).Where("email = ?", "admin@example.com").Count(&count).Error; err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one admin, got %d", count)
	}
}

func TestEnsureAdminSkipsWhenUnconfigured(t *testing.T) {
	original := DB
	DB = nil
	t.Cleanup(func() { DB = original })

	// 邮箱或密码为空时直接跳过，不访问数据库
	if err := EnsureAdmin("", "password"); err != nil {
		t.Fatalf("expected nil for empty email, got %v", err)
	}
	if err := EnsureAdmin("admin@example.com", ""); err != nil {
		t.Fatalf("expected nil for empty password, got %v", err)
	}
}
