package service

import (
	"errors"
	"strings"

	"github.com/nhatro/internal/db"
	"gorm.io/gorm"
)

var (
	ErrTagExists      = errors.New("tag already exists")
	ErrTagNotFound    = errors.New("tag not found")
	ErrInvalidTagType = errors.New("invalid tag type")
)

// TagService wraps tag related operations.
type TagService struct {
	db *gorm.DB
}

// NewTagService creates a TagService instance.
func NewTagService(gdb *gorm.DB) *TagService {
	return &TagService{db: gdb}
}

// List 返回标签列表，tagType 非空时按类别过滤。
func (s *TagService) List(tagType db.TagType) ([]db.Tag, error) {
	query := s.db.Model(&db.Tag{}).Order("name asc").Order("id asc")
	if tagType != "" {
		if !tagType.Valid() {
			return nil, ErrInvalidTagType
		}
		query = query.Where("type = ?", tagType)
	}

	var tags []db.Tag
	if err := query.Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// Get fetches a tag by id.
func (s *TagService) Get(id uint) (*db.Tag, error) {
	var tag db.Tag
	if err := s.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// Create inserts a new tag with unique name and derived slug.
func (s *TagService) Create(name string, tagType db.TagType) (*db.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("tag name is required")
	}
	if tagType == "" {
		tagType = db.TagTypeAmenity
	}
	if !tagType.Valid() {
		return nil, ErrInvalidTagType
	}

	var existing db.Tag
	if err := s.db.Where("name = ?", name).First(&existing).Error; err == nil {
		return nil, ErrTagExists
	}

	tag := db.Tag{Name: name, Type: tagType}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		derived, err := uniqueSlug(tx, "tags", name, 0)
		if err != nil {
			return err
		}
		tag.Slug = derived
		return tx.Create(&tag).Error
	}); err != nil {
		return nil, err
	}

	return &tag, nil
}

// Update 重命名标签并重新派生 slug，保持名称唯一。
func (s *TagService) Update(id uint, name string, tagType db.TagType) (*db.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("tag name is required")
	}

	var tag db.Tag
	if err := s.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}

	var existing db.Tag
	if err := s.db.Where("name = ? AND id <> ?", name, id).First(&existing).Error; err == nil {
		return nil, ErrTagExists
	}

	if tagType != "" {
		if !tagType.Valid() {
			return nil, ErrInvalidTagType
		}
		tag.Type = tagType
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if name != tag.Name {
			derived, err := uniqueSlug(tx, "tags", name, tag.ID)
			if err != nil {
				return err
			}
			tag.Name = name
			tag.Slug = derived
		}
		return tx.Save(&tag).Error
	}); err != nil {
		return nil, err
	}

	return &tag, nil
}

// Delete 级联删除标签：在同一事务内删除标签本身，并把它从所有
// 引用它的房源标签集合中摘除。任一步失败则整体回滚，保证不会出现
// 标签已删但房源仍引用（或反之）的中间状态。事务失败不做自动重试，
// 错误原样上抛由调用方重试。
func (s *TagService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Unscoped().Delete(&db.Tag{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTagNotFound
		}

		return tx.Exec("DELETE FROM article_tags WHERE tag_id = ?", id).Error
	})
}
