package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/pkg/pagination"
)

type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) error
	// Get 按 id 查询，包含已软删除的评论
	Get(ctx context.Context, id string) (*model.Comment, error)
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, parent model.ParentRef, page pagination.Page) ([]*model.Comment, int64, error)
}

type commentRepository struct{ db *gorm.DB }

func NewCommentRepository(db *gorm.DB) CommentRepository { return &commentRepository{db: db} }

func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *commentRepository) Get(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	if err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// SoftDelete 只会标记尚未删除的评论，已删除时保持原删除时间
func (r *commentRepository) SoftDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Comment{}).Error
}

func (r *commentRepository) List(ctx context.Context, parent model.ParentRef, page pagination.Page) ([]*model.Comment, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("parent_type = ? AND parent_id = ?", parent.Type, parent.ID)

	// 计数与分页查询共用条件
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var res []*model.Comment
	if total == 0 {
		return res, 0, nil
	}
	err := q.Order("created_at DESC, id DESC").Scopes(pagination.Scope(page)).Find(&res).Error
	return res, total, err
}
