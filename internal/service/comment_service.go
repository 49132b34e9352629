package service

import (
	"errors"
	"strings"
	"time"

	"github.com/nhatro/internal/db"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound    = errors.New("comment not found")
	ErrInvalidCommentType = errors.New("invalid comment type")
)

// CommentService wraps listing interaction related operations.
type CommentService struct {
	db *gorm.DB
}

// NewCommentService creates a CommentService instance.
func NewCommentService(gdb *gorm.DB) *CommentService {
	return &CommentService{db: gdb}
}

// CommentInput represents fields accepted when recording an interaction.
type CommentInput struct {
	ArticleID uint
	UserID    uint
	Type      db.CommentType
	Content   string
	GuestName string
}

// CommentView 是互动记录的对外视图，用户信息只携带公开字段。
type CommentView struct {
	ID        uint           `json:"id"`
	ArticleID uint           `json:"articleID"`
	Type      db.CommentType `json:"type"`
	Content   string         `json:"content"`
	GuestName string         `json:"guestName,omitempty"`
	User      *AuthorRef     `json:"user,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Create 记录一次房源互动（预约看房留言、点击拨号）。
func (s *CommentService) Create(input CommentInput) (*CommentView, error) {
	if !input.Type.Valid() {
		return nil, ErrInvalidCommentType
	}
	if input.ArticleID == 0 || input.UserID == 0 {
		return nil, ErrMissingFields
	}

	var count int64
	if err := s.db.Model(&db.Article{}).Where("id = ?", input.ArticleID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrArticleNotFound
	}

	comment := db.Comment{
		ArticleID: input.ArticleID,
		UserID:    input.UserID,
		Type:      input.Type,
		Content:   strings.TrimSpace(input.Content),
		GuestName: strings.TrimSpace(input.GuestName),
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}

	if err := s.db.Preload("User").First(&comment, comment.ID).Error; err != nil {
		return nil, err
	}
	view := commentView(&comment)
	return &view, nil
}

// ListForArticle 返回一条房源的互动记录，按时间倒序。
// 留言里含租客联系方式，仅房源作者或管理员可见。
func (s *CommentService) ListForArticle(articleID, callerID uint, callerRole db.UserRole) ([]CommentView, error) {
	var article db.Article
	if err := s.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	if !canMutate(callerID, callerRole, article.AuthorID) {
		return nil, ErrForbidden
	}

	var comments []db.Comment
	if err := s.db.Where("article_id = ?", articleID).
		Preload("User").
		Order("created_at desc, id desc").
		Find(&comments).Error; err != nil {
		return nil, err
	}

	views := make([]CommentView, 0, len(comments))
	for i := range comments {
		views = append(views, commentView(&comments[i]))
	}
	return views, nil
}

// Delete 删除互动记录，留言者本人或管理员可操作。
func (s *CommentService) Delete(id, callerID uint, callerRole db.UserRole) error {
	var comment db.Comment
	if err := s.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	if !canMutate(callerID, callerRole, comment.UserID) {
		return ErrForbidden
	}

	return s.db.Unscoped().Delete(&comment).Error
}

func commentView(comment *db.Comment) CommentView {
	view := CommentView{
		ID:        comment.ID,
		ArticleID: comment.ArticleID,
		Type:      comment.Type,
		Content:   comment.Content,
		GuestName: comment.GuestName,
		CreatedAt: comment.CreatedAt,
	}
	if comment.User.ID != 0 {
		view.User = &AuthorRef{
			ID:          comment.User.ID,
			FullName:    comment.User.FullName,
			Avatar:      comment.User.Avatar,
			PhoneNumber: comment.User.PhoneNumber,
			Email:       comment.User.Email,
		}
	}
	return view
}
