package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/repository"
	"github.com/d60-Lab/fitsocial/internal/repository/dbretry"
	"github.com/d60-Lab/fitsocial/pkg/apperr"
	"github.com/d60-Lab/fitsocial/pkg/pagination"
)

var ErrEventNotFound = apperr.New(apperr.ErrNotFound, "activity not found")

// ActivityFeed 动态流：读时按关注关系过滤（fan-out-on-read）
type ActivityFeed interface {
	// Append 在独立事务内保存事件；生产方在自身事务内应直接使用 Publisher
	Append(ctx context.Context, e *model.ActivityEvent) error
	GetFeed(ctx context.Context, viewerID string, page pagination.Page) (pagination.Slice[*model.ActivityEvent], error)
	// Get 按 id 查询，对 viewer 不可见的事件按不存在处理
	Get(ctx context.Context, eventID, viewerID string) (*model.ActivityEvent, error)
}

type activityFeed struct {
	store       *repository.Store
	graph       FollowGraph
	publisher   *Publisher
	maxPageSize int
}

func NewActivityFeed(store *repository.Store, graph FollowGraph, publisher *Publisher, maxPageSize int) ActivityFeed {
	return &activityFeed{store: store, graph: graph, publisher: publisher, maxPageSize: maxPageSize}
}

func (s *activityFeed) Append(ctx context.Context, e *model.ActivityEvent) error {
	ctx, span := tracer.Start(ctx, "ActivityFeed.Append", trace.WithAttributes(
		attribute.String("origin.id", e.OriginUserID),
		attribute.String("type", string(e.Type))))
	defer span.End()

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		return s.publisher.Publish(ctx, tx, e)
	})
	if err != nil {
		return fail(span, err)
	}
	return nil
}

func (s *activityFeed) GetFeed(ctx context.Context, viewerID string, page pagination.Page) (pagination.Slice[*model.ActivityEvent], error) {
	ctx, span := tracer.Start(ctx, "ActivityFeed.GetFeed", trace.WithAttributes(
		attribute.String("viewer.id", viewerID),
		attribute.Int("page", page.Index),
		attribute.Int("size", page.Size)))
	defer span.End()

	if viewerID == "" {
		return pagination.Slice[*model.ActivityEvent]{}, ErrEmptyID
	}
	if err := page.Validate(s.maxPageSize); err != nil {
		return pagination.Slice[*model.ActivityEvent]{}, err
	}

	rows, err := dbretry.Operation(ctx, func(ctx context.Context) ([]*model.ActivityEvent, error) {
		return s.store.Activities.Feed(ctx, viewerID, page)
	})
	if err != nil {
		return pagination.Slice[*model.ActivityEvent]{}, fail(span, err)
	}
	return pagination.NewSlice(rows, page), nil
}

func (s *activityFeed) Get(ctx context.Context, eventID, viewerID string) (*model.ActivityEvent, error) {
	e, err := dbretry.Operation(ctx, func(ctx context.Context) (*model.ActivityEvent, error) {
		return s.store.Activities.Get(ctx, eventID)
	})
	if err != nil {
		return nil, notFoundAs(apperr.FromStorage(err), ErrEventNotFound)
	}

	follows := false
	if e.Visibility == model.VisibilityFollowersOnly && e.OriginUserID != viewerID {
		if follows, err = s.graph.IsFollowing(ctx, viewerID, e.OriginUserID); err != nil {
			return nil, err
		}
	}
	if !e.VisibleTo(viewerID, follows) {
		return nil, ErrEventNotFound
	}
	return e, nil
}
