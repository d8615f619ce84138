package model

import "time"

// Reaction 点赞，(user_id, parent_type, parent_id) 唯一
type Reaction struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID     string     `gorm:"type:varchar(36);not null;index:idx_reaction_triple,unique" json:"userId"`
	ParentType ParentType `gorm:"type:varchar(16);not null;index:idx_reaction_triple,unique;index:idx_reaction_parent,priority:1" json:"parentType"`
	ParentID   string     `gorm:"type:varchar(36);not null;index:idx_reaction_triple,unique;index:idx_reaction_parent,priority:2" json:"parentId"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (Reaction) TableName() string { return "reactions" }
