package model

import "time"

// Workout 训练记录
type Workout struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string     `gorm:"type:varchar(36);not null;index:idx_workout_user_created,priority:1" json:"userId"`
	Title     string     `gorm:"type:varchar(255);not null" json:"title"`
	Notes     string     `gorm:"type:text" json:"notes"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	IsPrivate bool       `gorm:"not null;default:false" json:"isPrivate"`
	CreatedAt time.Time  `gorm:"index:idx_workout_user_created,priority:2" json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (Workout) TableName() string { return "workouts" }
