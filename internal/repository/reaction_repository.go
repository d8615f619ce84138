package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/fitsocial/internal/model"
)

type ReactionRepository interface {
	// Create 插入点赞，三元组已存在时返回 false
	Create(ctx context.Context, userID string, parent model.ParentRef) (bool, error)
	Delete(ctx context.Context, userID string, parent model.ParentRef) (bool, error)
	Exists(ctx context.Context, userID string, parent model.ParentRef) (bool, error)
	Count(ctx context.Context, parent model.ParentRef) (int64, error)
}

type reactionRepository struct{ db *gorm.DB }

func NewReactionRepository(db *gorm.DB) ReactionRepository { return &reactionRepository{db: db} }

func (r *reactionRepository) Create(ctx context.Context, userID string, parent model.ParentRef) (bool, error) {
	rc := &model.Reaction{
		ID:         uuid.Must(uuid.NewV7()).String(),
		UserID:     userID,
		ParentType: parent.Type,
		ParentID:   parent.ID,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rc)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *reactionRepository) Delete(ctx context.Context, userID string, parent model.ParentRef) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND parent_type = ? AND parent_id = ?", userID, parent.Type, parent.ID).
		Delete(&model.Reaction{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *reactionRepository) Exists(ctx context.Context, userID string, parent model.ParentRef) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Reaction{}).
		Where("user_id = ? AND parent_type = ? AND parent_id = ?", userID, parent.Type, parent.ID).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *reactionRepository) Count(ctx context.Context, parent model.ParentRef) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Reaction{}).
		Where("parent_type = ? AND parent_id = ?", parent.Type, parent.ID).
		Count(&cnt).Error
	return cnt, err
}
