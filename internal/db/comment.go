package db

import "gorm.io/gorm"

// CommentType 区分房源互动的类型
type CommentType string

const (
	// CommentTypeBooking 预约看房留言，content 记录期望时间等信息
	CommentTypeBooking CommentType = "Booking"
	// CommentTypeCallClick 点击拨号
	CommentTypeCallClick CommentType = "Call_Click"
)

// Valid reports whether the type is one of the known interaction types.
func (t CommentType) Valid() bool {
	switch t {
	case CommentTypeBooking, CommentTypeCallClick:
		return true
	}
	return false
}

// Comment 记录租客对房源的互动（预约看房留言、点击拨号）。
type Comment struct {
	gorm.Model
	ArticleID uint `gorm:"not null;index"`
	Article   Article
	UserID    uint `gorm:"not null;index"`
	User      User
	Type      CommentType `gorm:"not null;index"`
	Content   string
	GuestName string
}
