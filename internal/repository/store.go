package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/repository/dbretry"
)

// Store 聚合全部仓储；Transaction 内的仓储共用同一事务句柄
type Store struct {
	db *gorm.DB

	Users         UserRepository
	Follows       FollowRepository
	Fans          FanRepository
	Reactions     ReactionRepository
	Comments      CommentRepository
	Activities    ActivityRepository
	Outbox        OutboxRepository
	Notifications NotificationRepository
	Workouts      WorkoutRepository
	Routines      RoutineRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		Follows:       NewFollowRepository(db),
		Fans:          NewFanRepository(db),
		Reactions:     NewReactionRepository(db),
		Comments:      NewCommentRepository(db),
		Activities:    NewActivityRepository(db),
		Outbox:        NewOutboxRepository(db),
		Notifications: NewNotificationRepository(db),
		Workouts:      NewWorkoutRepository(db),
		Routines:      NewRoutineRepository(db),
	}
}

// DB 返回底层连接
func (s *Store) DB() *gorm.DB { return s.db }

// Transaction 在单个事务内执行 fn，任一步失败全部回滚；仅在序列化失败或死锁时整体重试，
// 因此 fn 不应产生事务外的副作用
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return dbretry.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Models 需要迁移的全部模型
func Models() []any {
	return []any{
		&model.User{},
		&model.Follow{},
		&model.Fan{},
		&model.Reaction{},
		&model.Comment{},
		&model.ActivityEvent{},
		&model.Outbox{},
		&model.Notification{},
		&model.Workout{},
		&model.Routine{},
	}
}

// Migrate 自动迁移表结构
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
