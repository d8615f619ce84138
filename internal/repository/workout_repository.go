package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/pkg/pagination"
)

type WorkoutRepository interface {
	Create(ctx context.Context, w *model.Workout) error
	Get(ctx context.Context, id string) (*model.Workout, error)
	ListByUser(ctx context.Context, userID string, includePrivate bool, page pagination.Page) ([]*model.Workout, int64, error)
	Delete(ctx context.Context, id string) error
}

type workoutRepository struct{ db *gorm.DB }

func NewWorkoutRepository(db *gorm.DB) WorkoutRepository { return &workoutRepository{db: db} }

func (r *workoutRepository) Create(ctx context.Context, w *model.Workout) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *workoutRepository) Get(ctx context.Context, id string) (*model.Workout, error) {
	var w model.Workout
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *workoutRepository) ListByUser(ctx context.Context, userID string, includePrivate bool, page pagination.Page) ([]*model.Workout, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Workout{}).Where("user_id = ?", userID)
	if !includePrivate {
		q = q.Where("is_private = ?", false)
	}

	// 计数与分页查询共用条件
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var res []*model.Workout
	if total == 0 {
		return res, 0, nil
	}
	err := q.Order("created_at DESC, id DESC").Scopes(pagination.Scope(page)).Find(&res).Error
	return res, total, err
}

func (r *workoutRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Workout{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
