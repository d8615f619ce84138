package model

import "time"

// Follow 关注关系（A 关注 B），边的存在即“关注”的唯一事实来源
type Follow struct {
	ID         string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	FollowerID string `gorm:"type:varchar(36);not null;index:idx_follow_pair,unique;index:idx_follow_follower_created,priority:1" json:"followerId"`
	FolloweeID string `gorm:"type:varchar(36);not null;index:idx_follow_pair,unique;index:idx_follow_followee" json:"followeeId"`
	// 复合唯一键，避免重复关注
	// idx_follow_pair = (follower_id, followee_id)
	CreatedAt time.Time `gorm:"index:idx_follow_follower_created,priority:2" json:"createdAt"`
}

func (Follow) TableName() string { return "follows" }
