package db

import "gorm.io/gorm"

// TagType 表示标签所属的固定词表类别
type TagType string

const (
	TagTypeRoomKind  TagType = "loai-phong" // 房型
	TagTypeAmenity   TagType = "tien-ich"   // 配套设施
	TagTypeFurniture TagType = "noi-that"   // 家具
	TagTypeTenure    TagType = "loai-hinh"  // 租赁形式
	TagTypeOther     TagType = "khac"
)

// Valid reports whether the type belongs to the fixed vocabulary.
func (t TagType) Valid() bool {
	switch t {
	case TagTypeRoomKind, TagTypeAmenity, TagTypeFurniture, TagTypeTenure, TagTypeOther:
		return true
	}
	return false
}

// Tag 定义了标签模型
type Tag struct {
	gorm.Model
	Name     string    `gorm:"uniqueIndex;not null"`
	Slug     string    `gorm:"uniqueIndex;not null"`
	Type     TagType   `gorm:"not null;default:tien-ich;index"`
	Articles []Article `gorm:"many2many:article_tags;"`
}
