package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/repository"
	"github.com/d60-Lab/fitsocial/internal/repository/dbretry"
	"github.com/d60-Lab/fitsocial/pkg/apperr"
	"github.com/d60-Lab/fitsocial/pkg/pagination"
)

var (
	ErrEmptyContent    = apperr.New(apperr.ErrInvalidOperation, "content must not be empty")
	ErrCommentNotOwned = apperr.New(apperr.ErrForbidden, "comment belongs to another user")
	ErrCommentNotFound = apperr.New(apperr.ErrNotFound, "comment not found")
)

// CommentThread 评论服务，删除为软删除
type CommentThread interface {
	Add(ctx context.Context, userID string, parent model.ParentRef, content string) (*model.Comment, error)
	// SoftDelete 对已删除的评论重复调用为无操作并返回成功
	SoftDelete(ctx context.Context, commentID, userID string) error
	List(ctx context.Context, parent model.ParentRef, page pagination.Page) (pagination.Paged[*model.Comment], error)
	// Get 直接按 id 查询，已删除的评论带 deletedAt 返回
	Get(ctx context.Context, commentID string) (*model.Comment, error)
}

type commentThread struct {
	store       *repository.Store
	sink        NotificationSink
	maxPageSize int
}

func NewCommentThread(store *repository.Store, sink NotificationSink, maxPageSize int) CommentThread {
	return &commentThread{store: store, sink: sinkOrNoop(sink), maxPageSize: maxPageSize}
}

func (s *commentThread) Add(ctx context.Context, userID string, parent model.ParentRef, content string) (*model.Comment, error) {
	ctx, span := tracer.Start(ctx, "CommentThread.Add", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("parent", parent.String())))
	defer span.End()

	if userID == "" {
		return nil, ErrEmptyID
	}
	if err := validParent(parent, model.ParentType.Commentable); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	c := &model.Comment{
		ID:         uuid.Must(uuid.NewV7()).String(),
		UserID:     userID,
		ParentType: parent.Type,
		ParentID:   parent.ID,
		Content:    content,
	}
	if err := s.store.Comments.Create(ctx, c); err != nil {
		return nil, fail(span, err)
	}

	s.sink.NotifyParentOwner(parent, userID, model.NotifyNewComment, map[string]any{
		"commentId":  c.ID,
		"parentType": parent.Type,
		"parentId":   parent.ID,
	})
	return c, nil
}

func (s *commentThread) SoftDelete(ctx context.Context, commentID, userID string) error {
	ctx, span := tracer.Start(ctx, "CommentThread.SoftDelete", trace.WithAttributes(
		attribute.String("comment.id", commentID),
		attribute.String("user.id", userID)))
	defer span.End()

	c, err := s.Get(ctx, commentID)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return ErrCommentNotOwned
	}
	if c.Deleted() {
		return nil
	}
	if err := s.store.Comments.SoftDelete(ctx, commentID); err != nil {
		return fail(span, err)
	}
	return nil
}

func (s *commentThread) List(ctx context.Context, parent model.ParentRef, page pagination.Page) (pagination.Paged[*model.Comment], error) {
	if err := validParent(parent, model.ParentType.Commentable); err != nil {
		return pagination.Paged[*model.Comment]{}, err
	}
	if err := page.Validate(s.maxPageSize); err != nil {
		return pagination.Paged[*model.Comment]{}, err
	}

	type result struct {
		items []*model.Comment
		total int64
	}
	res, err := dbretry.Operation(ctx, func(ctx context.Context) (result, error) {
		items, total, err := s.store.Comments.List(ctx, parent, page)
		return result{items: items, total: total}, err
	})
	if err != nil {
		return pagination.Paged[*model.Comment]{}, apperr.FromStorage(err)
	}
	return pagination.NewPaged(res.items, res.total, page), nil
}

func (s *commentThread) Get(ctx context.Context, commentID string) (*model.Comment, error) {
	c, err := dbretry.Operation(ctx, func(ctx context.Context) (*model.Comment, error) {
		return s.store.Comments.Get(ctx, commentID)
	})
	if err != nil {
		return nil, notFoundAs(apperr.FromStorage(err), ErrCommentNotFound)
	}
	return c, nil
}
