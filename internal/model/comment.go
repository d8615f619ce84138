package model

import (
	"time"

	"gorm.io/gorm"
)

// Comment 评论，软删除后不出现在列表中，但按 id 仍可查到
type Comment struct {
	ID         string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID     string         `gorm:"type:varchar(36);not null;index" json:"userId"`
	ParentType ParentType     `gorm:"type:varchar(16);not null;index:idx_comment_parent,priority:1" json:"parentType"`
	ParentID   string         `gorm:"type:varchar(36);not null;index:idx_comment_parent,priority:2" json:"parentId"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time      `gorm:"index:idx_comment_parent,priority:3" json:"createdAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`
}

func (Comment) TableName() string { return "comments" }

// Deleted 是否已软删除
func (c *Comment) Deleted() bool { return c.DeletedAt.Valid }
