package service

import (
	"errors"
	"strings"

	"github.com/nhatro/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserExists         = errors.New("email or phone number already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("invalid user role")
)

// UserService wraps user account related operations.
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a UserService instance.
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// RegisterInput represents fields accepted on registration.
type RegisterInput struct {
	Email       string
	Password    string
	FullName    string
	PhoneNumber string
	Avatar      string
	Role        db.UserRole
}

// ProfilePatch 个人资料的可选更新字段。Role 与密码不在其列，
// 防止通过资料接口越权提升角色。
type ProfilePatch struct {
	FullName    *string
	PhoneNumber *string
	Avatar      *string
}

// Register 创建新账号：邮箱与手机号均需唯一，密码经 bcrypt 哈希后存储。
func (s *UserService) Register(input RegisterInput) (*db.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	password := strings.TrimSpace(input.Password)
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	role := input.Role
	if role == "" {
		role = db.RoleTenant
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	var existing db.User
	err := s.db.Where("email = ? OR (phone_number <> '' AND phone_number = ?)", email, input.PhoneNumber).
		First(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := db.User{
		Email:          email,
		HashedPassword: string(hashed),
		FullName:       strings.TrimSpace(input.FullName),
		PhoneNumber:    strings.TrimSpace(input.PhoneNumber),
		Avatar:         strings.TrimSpace(input.Avatar),
		Role:           role,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Login 校验邮箱与密码，成功时返回用户记录。
func (s *UserService) Login(email, password string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.ComparePassword(password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get fetches a user by id.
func (s *UserService) Get(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies a partial profile update.
func (s *UserService) UpdateProfile(id uint, patch ProfilePatch) (*db.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if patch.FullName != nil {
		user.FullName = strings.TrimSpace(*patch.FullName)
	}
	if patch.PhoneNumber != nil {
		user.PhoneNumber = strings.TrimSpace(*patch.PhoneNumber)
	}
	if patch.Avatar != nil {
		user.Avatar = strings.TrimSpace(*patch.Avatar)
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// ToggleSaved 收藏/取消收藏一条房源。在同一事务内先尝试删除关联行，
// 删不到再插入，避免「读-改-写」带来的并发竞态窗口。
// 返回 true 表示本次操作后处于已收藏状态。
func (s *UserService) ToggleSaved(userID, articleID uint) (bool, error) {
	var article db.Article
	if err := s.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrArticleNotFound
		}
		return false, err
	}

	saved := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(
			"DELETE FROM user_saved_articles WHERE user_id = ? AND article_id = ?",
			userID, articleID,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		saved = true
		return tx.Exec(
			"INSERT INTO user_saved_articles (user_id, article_id) VALUES (?, ?)",
			userID, articleID,
		).Error
	})
	if err != nil {
		return false, err
	}
	return saved, nil
}

// SavedArticles 返回用户收藏的房源概要列表。
func (s *UserService) SavedArticles(userID uint) ([]ArticleSummary, error) {
	if _, err := s.Get(userID); err != nil {
		return nil, err
	}

	var articles []db.Article
	if err := s.db.Model(&db.Article{}).
		Select(summaryColumns).
		Joins("JOIN user_saved_articles ON user_saved_articles.article_id = articles.id").
		Where("user_saved_articles.user_id = ?", userID).
		Preload("Category").
		Preload("Tags").
		Preload("Author").
		Order("articles.created_at desc").
		Find(&articles).Error; err != nil {
		return nil, err
	}

	items := make([]ArticleSummary, 0, len(articles))
	for i := range articles {
		summary := summarize(&articles[i])
		summary.IsSaved = true
		items = append(items, summary)
	}
	return items, nil
}
