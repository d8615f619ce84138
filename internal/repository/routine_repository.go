package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/fitsocial/internal/model"
)

type RoutineRepository interface {
	Create(ctx context.Context, r *model.Routine) error
	Get(ctx context.Context, id string) (*model.Routine, error)
	// Publish 条件更新，仅未发布的计划会被修改；已发布时返回 false
	Publish(ctx context.Context, id string, at time.Time) (bool, error)
}

type routineRepository struct{ db *gorm.DB }

func NewRoutineRepository(db *gorm.DB) RoutineRepository { return &routineRepository{db: db} }

func (r *routineRepository) Create(ctx context.Context, rt *model.Routine) error {
	return r.db.WithContext(ctx).Create(rt).Error
}

func (r *routineRepository) Get(ctx context.Context, id string) (*model.Routine, error) {
	var rt model.Routine
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *routineRepository) Publish(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Routine{}).
		Where("id = ? AND is_public = ?", id, false).
		Updates(map[string]any{"is_public": true, "published_at": at, "updated_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
