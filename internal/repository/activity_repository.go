package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/pkg/pagination"
)

type ActivityRepository interface {
	Create(ctx context.Context, e *model.ActivityEvent) error
	Get(ctx context.Context, id string) (*model.ActivityEvent, error)
	// Feed 返回 viewer 可见的事件，多取一行用于判断 hasNext
	Feed(ctx context.Context, viewerID string, page pagination.Page) ([]*model.ActivityEvent, error)
}

type activityRepository struct{ db *gorm.DB }

func NewActivityRepository(db *gorm.DB) ActivityRepository { return &activityRepository{db: db} }

func (r *activityRepository) Create(ctx context.Context, e *model.ActivityEvent) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *activityRepository) Get(ctx context.Context, id string) (*model.ActivityEvent, error) {
	var e model.ActivityEvent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *activityRepository) Feed(ctx context.Context, viewerID string, page pagination.Page) ([]*model.ActivityEvent, error) {
	// 可见性的唯一闸门：公开，或本人，或已关注作者的仅粉丝可见
	// 关注集合在同一条语句内解析，不受绑定参数个数限制
	followed := r.db.Model(&model.Follow{}).Select("followee_id").Where("follower_id = ?", viewerID)

	var res []*model.ActivityEvent
	err := r.db.WithContext(ctx).
		Where("visibility = ? OR origin_user_id = ? OR (visibility = ? AND origin_user_id IN (?))",
			model.VisibilityPublic, viewerID, model.VisibilityFollowersOnly, followed).
		Order("created_at DESC, id DESC").
		Scopes(pagination.SliceScope(page)).
		Find(&res).Error
	return res, err
}
