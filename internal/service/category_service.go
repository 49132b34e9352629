package service

import (
	"errors"
	"strings"

	"github.com/nhatro/internal/db"
	"gorm.io/gorm"
)

var (
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInUse    = errors.New("category is referenced by articles")
	ErrCategoryCycle    = errors.New("category parent chain would form a cycle")
)

// CategoryService wraps area category related operations.
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a CategoryService instance.
func NewCategoryService(gdb *gorm.DB) *CategoryService {
	return &CategoryService{db: gdb}
}

// CategoryInput represents fields accepted when creating a category.
type CategoryInput struct {
	Name        string
	Description string
	ParentID    *uint
}

// CategoryPatch 部分更新的可选字段。外层指针表示「是否修改」；
// ParentID 的内层指针为目标父级，内层为 nil 时脱离父级成为顶级分类。
type CategoryPatch struct {
	Name        *string
	Description *string
	ParentID    **uint
}

// List returns all categories with their parent preloaded.
func (s *CategoryService) List() ([]db.Category, error) {
	var categories []db.Category
	if err := s.db.Preload("Parent").Order("name asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Get fetches a category by id with its parent preloaded.
func (s *CategoryService) Get(id uint) (*db.Category, error) {
	var category db.Category
	if err := s.db.Preload("Parent").First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// Create inserts a new category with unique name and derived slug.
func (s *CategoryService) Create(input CategoryInput) (*db.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("category name is required")
	}

	var existing db.Category
	if err := s.db.Where("name = ?", name).First(&existing).Error; err == nil {
		return nil, ErrCategoryExists
	}

	if input.ParentID != nil {
		if _, err := s.Get(*input.ParentID); err != nil {
			return nil, err
		}
	}

	category := db.Category{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		ParentID:    input.ParentID,
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		derived, err := uniqueSlug(tx, "categories", name, 0)
		if err != nil {
			return err
		}
		category.Slug = derived
		return tx.Create(&category).Error
	}); err != nil {
		return nil, err
	}

	return &category, nil
}

// Update 对分类做部分更新；改名时重新派生 slug，调整父级时校验不形成环。
func (s *CategoryService) Update(id uint, patch CategoryPatch) (*db.Category, error) {
	var category db.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	name := category.Name
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, errors.New("category name is required")
		}
		if name != category.Name {
			var existing db.Category
			if err := s.db.Where("name = ? AND id <> ?", name, id).First(&existing).Error; err == nil {
				return nil, ErrCategoryExists
			}
		}
	}

	if patch.ParentID != nil {
		if parent := *patch.ParentID; parent == nil {
			// 脱离父级，晋升为顶级分类
			category.ParentID = nil
		} else {
			if err := s.checkParentChain(id, *parent); err != nil {
				return nil, err
			}
			category.ParentID = parent
		}
	}

	if patch.Description != nil {
		category.Description = strings.TrimSpace(*patch.Description)
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if name != category.Name {
			derived, err := uniqueSlug(tx, "categories", name, category.ID)
			if err != nil {
				return err
			}
			category.Name = name
			category.Slug = derived
		}
		return tx.Save(&category).Error
	}); err != nil {
		return nil, err
	}

	if err := s.db.Preload("Parent").First(&category, category.ID).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// Delete 删除分类。若仍有房源引用该分类，必须提供 reassignTo 指定
// 迁移目标，否则拒绝删除，避免产生悬挂引用。迁移与删除在同一事务内完成。
func (s *CategoryService) Delete(id uint, reassignTo *uint) error {
	var category db.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	var refs int64
	if err := s.db.Model(&db.Article{}).Where("category_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}

	if refs > 0 && reassignTo == nil {
		return ErrCategoryInUse
	}
	if reassignTo != nil {
		if *reassignTo == id {
			return ErrCategoryInUse
		}
		if _, err := s.Get(*reassignTo); err != nil {
			return err
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if refs > 0 {
			if err := tx.Model(&db.Article{}).
				Where("category_id = ?", id).
				Update("category_id", *reassignTo).Error; err != nil {
				return err
			}
		}

		// 子分类解除挂靠，晋升为顶级分类
		if err := tx.Model(&db.Category{}).
			Where("parent_id = ?", id).
			Update("parent_id", nil).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(&category).Error
	})
}

// checkParentChain 沿父链向上走，确认把 parentID 设为 id 的父级不会成环。
func (s *CategoryService) checkParentChain(id, parentID uint) error {
	current := parentID
	for current != 0 {
		if current == id {
			return ErrCategoryCycle
		}

		var parent db.Category
		if err := s.db.Select("id", "parent_id").First(&parent, current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}
		if parent.ParentID == nil {
			return nil
		}
		current = *parent.ParentID
	}
	return nil
}
