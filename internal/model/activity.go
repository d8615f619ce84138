package model

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityType 动态类型
type ActivityType string

const (
	ActivityWorkoutCreated   ActivityType = "WORKOUT_CREATED"
	ActivityRoutinePublished ActivityType = "ROUTINE_PUBLISHED"
	ActivityUserFollowed     ActivityType = "USER_FOLLOWED"
)

// Visibility 动态可见性
type Visibility string

const (
	VisibilityPublic        Visibility = "PUBLIC"
	VisibilityFollowersOnly Visibility = "FOLLOWERS_ONLY"
	VisibilityPrivate       Visibility = "PRIVATE"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityFollowersOnly || v == VisibilityPrivate
}

// ActivityEvent 动态事件，创建后不可变
type ActivityEvent struct {
	ID           string         `gorm:"primaryKey;type:varchar(36);index:idx_activity_created_id,priority:2" json:"id"`
	OriginUserID string         `gorm:"type:varchar(36);not null;index" json:"originUserId"`
	Type         ActivityType   `gorm:"type:varchar(32);not null" json:"type"`
	Payload      datatypes.JSON `json:"payload"`
	Visibility   Visibility     `gorm:"type:varchar(16);not null;index" json:"visibility"`
	CreatedAt    time.Time      `gorm:"index:idx_activity_created_id,priority:1" json:"createdAt"`
}

func (ActivityEvent) TableName() string { return "activity_events" }

// VisibleTo 与 feed 查询使用同一可见性规则
func (e *ActivityEvent) VisibleTo(viewerID string, follows bool) bool {
	if e.OriginUserID == viewerID {
		return true
	}
	switch e.Visibility {
	case VisibilityPublic:
		return true
	case VisibilityFollowersOnly:
		return follows
	default:
		return false
	}
}

// FansOut 需要向粉丝扇出通知的事件
func (e *ActivityEvent) FansOut() bool {
	if e.Visibility == VisibilityPrivate {
		return false
	}
	return e.Type == ActivityWorkoutCreated || e.Type == ActivityRoutinePublished
}
