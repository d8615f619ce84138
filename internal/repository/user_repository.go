package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/fitsocial/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	Get(ctx context.Context, id string) (*model.User, error)
	// GetForUpdate 行锁读取，计数对账时阻塞并发的计数更新
	GetForUpdate(ctx context.Context, id string) (*model.User, error)
	// IncrementFollowCounts 关注成功后 follower 的关注数与 followee 的粉丝数各 +1
	IncrementFollowCounts(ctx context.Context, followerID, followeeID string) error
	// DecrementFollowCounts 取关后两个计数各 -1，下限为 0
	DecrementFollowCounts(ctx context.Context, followerID, followeeID string) error
	SetFollowCounts(ctx context.Context, id string, followers, following int64) error
	ListIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error)
}

type userRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepository) Get(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetForUpdate(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) IncrementFollowCounts(ctx context.Context, followerID, followeeID string) error {
	return r.updatePair(ctx,
		counterUpdate{followerID, "following_count", gorm.Expr("following_count + 1")},
		counterUpdate{followeeID, "followers_count", gorm.Expr("followers_count + 1")})
}

func (r *userRepository) DecrementFollowCounts(ctx context.Context, followerID, followeeID string) error {
	return r.updatePair(ctx,
		counterUpdate{followerID, "following_count", gorm.Expr("CASE WHEN following_count > 0 THEN following_count - 1 ELSE 0 END")},
		counterUpdate{followeeID, "followers_count", gorm.Expr("CASE WHEN followers_count > 0 THEN followers_count - 1 ELSE 0 END")})
}

type counterUpdate struct {
	id     string
	column string
	expr   clause.Expr
}

// updatePair 按用户 id 顺序加锁，互相关注的并发事务不会交叉等待
func (r *userRepository) updatePair(ctx context.Context, a, b counterUpdate) error {
	if b.id < a.id {
		a, b = b, a
	}
	if err := r.updateCounter(ctx, a.id, a.column, a.expr); err != nil {
		return err
	}
	return r.updateCounter(ctx, b.id, b.column, b.expr)
}

// updateCounter 单条 UPDATE 原子修改计数；用户不存在时返回 gorm.ErrRecordNotFound
func (r *userRepository) updateCounter(ctx context.Context, id, column string, expr clause.Expr) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).UpdateColumn(column, expr)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) SetFollowCounts(ctx context.Context, id string, followers, following int64) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		UpdateColumns(map[string]any{"followers_count": followers, "following_count": following})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListIDsAfter 按 id 顺序分批遍历用户
func (r *userRepository) ListIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id > ?", afterID).
		Order("id").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
