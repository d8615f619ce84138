package model

import "time"

const (
	OutboxPending    = "pending"
	OutboxProcessing = "processing"
	OutboxDone       = "done"
)

// Outbox 事件外发盒，与动态事件同一事务写入，由 fanout worker 消费
type Outbox struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)"`
	EventID     string     `gorm:"type:varchar(36);uniqueIndex"`
	OriginID    string     `gorm:"type:varchar(36);index:idx_outbox_origin"`
	CreatedAt   time.Time  `gorm:"index"`
	Status      string     `gorm:"type:varchar(16);index"` // pending, processing, done
	ClaimedAt   *time.Time
	ProcessedAt *time.Time
	FanoutCount int64
}

func (Outbox) TableName() string { return "outbox" }
