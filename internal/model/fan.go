package model

import "time"

// Fan 粉丝关系（B 的粉丝是 A）冗余自 Follow，与关注边在同一事务内写入
type Fan struct {
	ID     string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID string `gorm:"type:varchar(36);not null;index:idx_fan_pair,unique;index:idx_fan_user_created,priority:1" json:"userId"`
	FanID  string `gorm:"type:varchar(36);not null;index:idx_fan_pair,unique" json:"fanId"`
	// idx_fan_pair = (user_id, fan_id)
	CreatedAt time.Time `gorm:"index:idx_fan_user_created,priority:2" json:"createdAt"`
}

func (Fan) TableName() string { return "fans" }
