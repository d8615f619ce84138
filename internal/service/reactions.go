package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/repository"
	"github.com/d60-Lab/fitsocial/internal/repository/dbretry"
	"github.com/d60-Lab/fitsocial/pkg/apperr"
)

// ErrReactionRace 并发 toggle 时另一请求先插入了同一点赞，调用方看到的状态为已点赞
var ErrReactionRace = apperr.New(apperr.ErrConflict, "reaction changed concurrently")

// Reactions 点赞服务
type Reactions interface {
	// Toggle 存在则删除（返回 false），不存在则创建（返回 true）
	Toggle(ctx context.Context, userID string, parent model.ParentRef) (bool, error)
	Count(ctx context.Context, parent model.ParentRef) (int64, error)
	IsReactedBy(ctx context.Context, userID string, parent model.ParentRef) (bool, error)
}

type reactions struct {
	store *repository.Store
	sink  NotificationSink
}

func NewReactions(store *repository.Store, sink NotificationSink) Reactions {
	return &reactions{store: store, sink: sinkOrNoop(sink)}
}

func (s *reactions) Toggle(ctx context.Context, userID string, parent model.ParentRef) (bool, error) {
	ctx, span := tracer.Start(ctx, "Reactions.Toggle", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("parent", parent.String())))
	defer span.End()

	if userID == "" {
		return false, ErrEmptyID
	}
	if err := validParent(parent, model.ParentType.Reactable); err != nil {
		return false, err
	}

	var liked bool
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		// 先删后插：删除命中即取消点赞；插入冲突说明并发请求已先点赞
		deleted, err := tx.Reactions.Delete(ctx, userID, parent)
		if err != nil {
			return err
		}
		if deleted {
			liked = false
			return nil
		}
		created, err := tx.Reactions.Create(ctx, userID, parent)
		if err != nil {
			return err
		}
		if !created {
			return ErrReactionRace
		}
		liked = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrReactionRace) {
			return true, fail(span, err)
		}
		return false, fail(span, err)
	}

	if liked {
		s.sink.NotifyParentOwner(parent, userID, model.NotifyNewLike, map[string]any{
			"parentType": parent.Type,
			"parentId":   parent.ID,
		})
	}
	return liked, nil
}

func (s *reactions) Count(ctx context.Context, parent model.ParentRef) (int64, error) {
	if err := validParent(parent, model.ParentType.Reactable); err != nil {
		return 0, err
	}
	cnt, err := dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		return s.store.Reactions.Count(ctx, parent)
	})
	return cnt, apperr.FromStorage(err)
}

func (s *reactions) IsReactedBy(ctx context.Context, userID string, parent model.ParentRef) (bool, error) {
	if err := validParent(parent, model.ParentType.Reactable); err != nil {
		return false, err
	}
	ok, err := dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		return s.store.Reactions.Exists(ctx, userID, parent)
	})
	return ok, apperr.FromStorage(err)
}
