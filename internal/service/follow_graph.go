package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/fitsocial/internal/cache"
	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/repository"
	"github.com/d60-Lab/fitsocial/internal/repository/dbretry"
	"github.com/d60-Lab/fitsocial/pkg/apperr"
	"github.com/d60-Lab/fitsocial/pkg/pagination"
)

var (
	ErrFollowSelf       = apperr.New(apperr.ErrInvalidOperation, "cannot follow self")
	ErrAlreadyFollowing = apperr.New(apperr.ErrConflict, "already following")
	ErrNotFollowing     = apperr.New(apperr.ErrNotFound, "not following")
)

// FollowGraph 关注关系服务：关注边与两个冗余计数在同一事务内变更
type FollowGraph interface {
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	FolloweeIDs(ctx context.Context, userID string) ([]string, error)
	ListFollowers(ctx context.Context, userID string, page pagination.Page) (pagination.Paged[string], error)
	ListFollowing(ctx context.Context, userID string, page pagination.Page) (pagination.Paged[string], error)
}

type followGraph struct {
	store       *repository.Store
	publisher   *Publisher
	cache       *cache.RelationCache
	sink        NotificationSink
	maxPageSize int
	log         *zap.Logger
}

func NewFollowGraph(store *repository.Store, publisher *Publisher, relCache *cache.RelationCache, sink NotificationSink, maxPageSize int, log *zap.Logger) FollowGraph {
	return &followGraph{
		store:       store,
		publisher:   publisher,
		cache:       relCache,
		sink:        sinkOrNoop(sink),
		maxPageSize: maxPageSize,
		log:         log,
	}
}

func (s *followGraph) Follow(ctx context.Context, followerID, followeeID string) error {
	ctx, span := tracer.Start(ctx, "FollowGraph.Follow", trace.WithAttributes(
		attribute.String("follower.id", followerID),
		attribute.String("followee.id", followeeID)))
	defer span.End()

	if followerID == "" || followeeID == "" {
		return ErrEmptyID
	}
	if followerID == followeeID {
		return ErrFollowSelf
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		created, err := tx.Follows.Create(ctx, followerID, followeeID)
		if err != nil {
			return err
		}
		if !created {
			return ErrAlreadyFollowing
		}
		if err := tx.Fans.Create(ctx, followeeID, followerID); err != nil {
			return err
		}
		// 任一用户不存在时返回 NotFound，整个事务回滚
		if err := tx.Users.IncrementFollowCounts(ctx, followerID, followeeID); err != nil {
			return err
		}
		event, err := NewEvent(followerID, model.ActivityUserFollowed, model.VisibilityFollowersOnly,
			map[string]any{"followeeId": followeeID})
		if err != nil {
			return err
		}
		return s.publisher.Publish(ctx, tx, event)
	})
	if err != nil {
		return fail(span, notFoundAs(apperr.FromStorage(err), ErrUserNotFound))
	}

	s.cache.Invalidate(ctx, followerID, followeeID)
	s.sink.NotifyUser(followeeID, followerID, model.NotifyNewFollow, map[string]any{"followerId": followerID})
	s.log.Debug("followed", zap.String("follower", followerID), zap.String("followee", followeeID))
	return nil
}

func (s *followGraph) Unfollow(ctx context.Context, followerID, followeeID string) error {
	ctx, span := tracer.Start(ctx, "FollowGraph.Unfollow", trace.WithAttributes(
		attribute.String("follower.id", followerID),
		attribute.String("followee.id", followeeID)))
	defer span.End()

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		deleted, err := tx.Follows.Delete(ctx, followerID, followeeID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrNotFollowing
		}
		if err := tx.Fans.Delete(ctx, followeeID, followerID); err != nil {
			return err
		}
		return tx.Users.DecrementFollowCounts(ctx, followerID, followeeID)
	})
	if err != nil {
		return fail(span, err)
	}

	s.cache.Invalidate(ctx, followerID, followeeID)
	s.log.Debug("unfollowed", zap.String("follower", followerID), zap.String("followee", followeeID))
	return nil
}

func (s *followGraph) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	ok, err := dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		return s.store.Follows.Exists(ctx, followerID, followeeID)
	})
	return ok, apperr.FromStorage(err)
}

// FolloweeIDs 直接读库，不经过缓存
func (s *followGraph) FolloweeIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := dbretry.Operation(ctx, func(ctx context.Context) ([]string, error) {
		return s.store.Follows.FolloweeIDs(ctx, userID)
	})
	return ids, apperr.FromStorage(err)
}

func (s *followGraph) ListFollowers(ctx context.Context, userID string, page pagination.Page) (pagination.Paged[string], error) {
	if err := page.Validate(s.maxPageSize); err != nil {
		return pagination.Paged[string]{}, err
	}

	var (
		ids   []string
		total int64
		err   error
	)
	if s.cache != nil {
		ids, total, err = s.cache.Followers(ctx, userID, page.Offset(), page.Size, func(ctx context.Context) ([]string, error) {
			return dbretry.Operation(ctx, func(ctx context.Context) ([]string, error) {
				return s.store.Fans.AllFanIDs(ctx, userID)
			})
		})
	} else {
		ids, total, err = s.followersFromStore(ctx, userID, page)
	}
	if err != nil {
		return pagination.Paged[string]{}, apperr.FromStorage(err)
	}
	return pagination.NewPaged(ids, total, page), nil
}

func (s *followGraph) ListFollowing(ctx context.Context, userID string, page pagination.Page) (pagination.Paged[string], error) {
	if err := page.Validate(s.maxPageSize); err != nil {
		return pagination.Paged[string]{}, err
	}

	var (
		ids   []string
		total int64
		err   error
	)
	if s.cache != nil {
		ids, total, err = s.cache.Following(ctx, userID, page.Offset(), page.Size, func(ctx context.Context) ([]string, error) {
			return dbretry.Operation(ctx, func(ctx context.Context) ([]string, error) {
				return s.store.Follows.AllFolloweeIDs(ctx, userID)
			})
		})
	} else {
		ids, total, err = s.followingFromStore(ctx, userID, page)
	}
	if err != nil {
		return pagination.Paged[string]{}, apperr.FromStorage(err)
	}
	return pagination.NewPaged(ids, total, page), nil
}

func (s *followGraph) followersFromStore(ctx context.Context, userID string, page pagination.Page) ([]string, int64, error) {
	total, err := dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		return s.store.Fans.CountFans(ctx, userID)
	})
	if err != nil || total == 0 {
		return nil, total, err
	}
	fans, err := dbretry.Operation(ctx, func(ctx context.Context) ([]*model.Fan, error) {
		return s.store.Fans.ListFans(ctx, userID, page)
	})
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, len(fans))
	for i, f := range fans {
		ids[i] = f.FanID
	}
	return ids, total, nil
}

func (s *followGraph) followingFromStore(ctx context.Context, userID string, page pagination.Page) ([]string, int64, error) {
	total, err := dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		return s.store.Follows.CountFollowings(ctx, userID)
	})
	if err != nil || total == 0 {
		return nil, total, err
	}
	follows, err := dbretry.Operation(ctx, func(ctx context.Context) ([]*model.Follow, error) {
		return s.store.Follows.ListFollowings(ctx, userID, page)
	})
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, len(follows))
	for i, f := range follows {
		ids[i] = f.FolloweeID
	}
	return ids, total, nil
}
