package db

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ArticleStatus 表示租房信息的生命周期状态
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "Draft"
	StatusPending   ArticleStatus = "Pending"
	StatusPublished ArticleStatus = "Published"
	StatusHidden    ArticleStatus = "Hidden"
	StatusRented    ArticleStatus = "Rented"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s ArticleStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusPublished, StatusHidden, StatusRented:
		return true
	}
	return false
}

// Article 定义了租房信息模型。summary 在前台用作简短地址展示。
type Article struct {
	gorm.Model
	Title      string `gorm:"not null"`
	Slug       string `gorm:"uniqueIndex;not null"`
	Content    string
	Summary    string
	Price      int64   `gorm:"not null;index"`
	Area       float64 `gorm:"not null"`
	Thumbnail  string
	Images     datatypes.JSON
	CategoryID uint `gorm:"not null;index"`
	Category   Category
	AuthorID   uint `gorm:"not null;index"`
	Author     User          `gorm:"foreignKey:AuthorID"`
	Tags       []Tag         `gorm:"many2many:article_tags;"`
	Status     ArticleStatus `gorm:"not null;default:Pending;index"`
}

// ImageList 解码 images JSON 列，异常数据按空列表处理。
func (a *Article) ImageList() []string {
	if len(a.Images) == 0 {
		return []string{}
	}
	var urls []string
	if err := json.Unmarshal(a.Images, &urls); err != nil {
		return []string{}
	}
	return urls
}

// SetImageList 编码图片地址列表写入 images JSON 列。
func (a *Article) SetImageList(urls []string) error {
	if urls == nil {
		urls = []string{}
	}
	raw, err := json.Marshal(urls)
	if err != nil {
		return err
	}
	a.Images = datatypes.JSON(raw)
	return nil
}
