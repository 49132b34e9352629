package db

import "gorm.io/gorm"

// Category 定义了区域分类模型，支持 省/市 -> 区/县 -> 街道 的树形层级。
type Category struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;not null"`
	Slug        string `gorm:"uniqueIndex;not null"`
	Description string
	ParentID    *uint     `gorm:"index"`
	Parent      *Category `gorm:"foreignKey:ParentID"`
}
