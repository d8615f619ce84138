package model

import "time"

// Routine 训练计划，创建时为私有草稿，发布后公开
type Routine struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID     string     `gorm:"type:varchar(36);not null;index" json:"ownerId"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	IsPublic    bool       `gorm:"not null;default:false" json:"isPublic"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Routine) TableName() string { return "routines" }
