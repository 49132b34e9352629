package service

import (
	"fmt"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// uniqueSlug 根据名称派生 URL slug，并在表内冲突时追加数字后缀保证唯一。
// excludeID 非零时忽略自身记录，用于改名时重新派生。
func uniqueSlug(tx *gorm.DB, table, name string, excludeID uint) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "untitled"
	}

	candidate := base
	for i := 2; ; i++ {
		var count int64
		query := tx.Table(table).Where("slug = ? AND deleted_at IS NULL", candidate)
		if excludeID != 0 {
			query = query.Where("id <> ?", excludeID)
		}
		if err := query.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
