package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserRole 表示用户角色
type UserRole string

const (
	RoleAdmin    UserRole = "Admin"
	RoleLandlord UserRole = "Landlord"
	RoleTenant   UserRole = "Tenant"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleLandlord, RoleTenant:
		return true
	}
	return false
}

// User 定义了用户模型
type User struct {
	gorm.Model
	Email          string `gorm:"uniqueIndex;not null"`
	HashedPassword string `gorm:"not null"`
	FullName       string
	PhoneNumber    string
	Avatar         string
	Role           UserRole  `gorm:"not null;default:Tenant"`
	SavedArticles  []Article `gorm:"many2many:user_saved_articles;"`
}

// ComparePassword 校验明文密码与存储的 bcrypt 哈希是否匹配。
func (u *User) ComparePassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(candidate)) == nil
}

// EnsureAdmin 存在性检查：若提供的邮箱与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的管理员。
func EnsureAdmin(email, password string) error {
	trimmedEmail := strings.ToLower(strings.TrimSpace(email))
	trimmedPassword := strings.TrimSpace(password)
	if trimmedEmail == "" || trimmedPassword == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := DB.Where("email = ?", trimmedEmail).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return DB.Create(&User{
			Email:          trimmedEmail,
			HashedPassword: string(hashed),
			FullName:       "Administrator",
			Role:           RoleAdmin,
		}).Error
	}

	return nil
}
