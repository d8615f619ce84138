package model

import "time"

// User 用户，粉丝数与关注数是关注边的冗余计数，只由关注服务维护
type User struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username       string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"username"`
	DisplayName    string    `gorm:"type:varchar(128)" json:"displayName"`
	FollowersCount int64     `gorm:"not null;default:0" json:"followersCount"`
	FollowingCount int64     `gorm:"not null;default:0" json:"followingCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }
