package model

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationType 通知类型
type NotificationType string

const (
	NotifyNewFollow            NotificationType = "NEW_FOLLOW"
	NotifyNewComment           NotificationType = "NEW_COMMENT"
	NotifyNewLike              NotificationType = "NEW_LIKE"
	NotifyActivityFromFollower NotificationType = "ACTIVITY_FROM_FOLLOWER"
)

// Notification 通知收件箱（按 user_id 查询）
type Notification struct {
	ID      string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID  string           `gorm:"type:varchar(36);not null;index:idx_notification_user_read,priority:1;uniqueIndex:ux_notification_user_event,priority:1" json:"userId"`
	ActorID string           `gorm:"type:varchar(36);not null" json:"actorId"`
	Type    NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	// 扇出通知以 (user_id, event_id) 去重；直接通知 event_id 为空，不参与唯一约束
	EventID   *string        `gorm:"type:varchar(36);uniqueIndex:ux_notification_user_event,priority:2" json:"eventId,omitempty"`
	Payload   datatypes.JSON `json:"payload"`
	IsRead    bool           `gorm:"not null;default:false;index:idx_notification_user_read,priority:2" json:"isRead"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (Notification) TableName() string { return "notifications" }
