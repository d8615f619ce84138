package service

import (
	"context"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/repository"
	"github.com/d60-Lab/fitsocial/internal/repository/dbretry"
	"github.com/d60-Lab/fitsocial/pkg/apperr"
	"github.com/d60-Lab/fitsocial/pkg/pagination"
)

var (
	ErrNotificationNotFound = apperr.New(apperr.ErrNotFound, "notification not found")
	ErrNotificationNotOwned = apperr.New(apperr.ErrForbidden, "notification belongs to another user")
)

// NotificationService 通知收件箱查询与已读标记
type NotificationService interface {
	ListUnread(ctx context.Context, userID string, page pagination.Page) (pagination.Paged[*model.Notification], error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationService struct {
	store       *repository.Store
	maxPageSize int
}

func NewNotificationService(store *repository.Store, maxPageSize int) NotificationService {
	return &notificationService{store: store, maxPageSize: maxPageSize}
}

func (s *notificationService) ListUnread(ctx context.Context, userID string, page pagination.Page) (pagination.Paged[*model.Notification], error) {
	if err := page.Validate(s.maxPageSize); err != nil {
		return pagination.Paged[*model.Notification]{}, err
	}

	type result struct {
		items []*model.Notification
		total int64
	}
	res, err := dbretry.Operation(ctx, func(ctx context.Context) (result, error) {
		items, total, err := s.store.Notifications.ListUnread(ctx, userID, page)
		return result{items: items, total: total}, err
	})
	if err != nil {
		return pagination.Paged[*model.Notification]{}, apperr.FromStorage(err)
	}
	return pagination.NewPaged(res.items, res.total, page), nil
}

func (s *notificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	cnt, err := dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		return s.store.Notifications.CountUnread(ctx, userID)
	})
	return cnt, apperr.FromStorage(err)
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	n, err := dbretry.Operation(ctx, func(ctx context.Context) (*model.Notification, error) {
		return s.store.Notifications.Get(ctx, id)
	})
	if err != nil {
		return notFoundAs(apperr.FromStorage(err), ErrNotificationNotFound)
	}
	if n.UserID != userID {
		return ErrNotificationNotOwned
	}
	if n.IsRead {
		return nil
	}
	return apperr.FromStorage(s.store.Notifications.MarkRead(ctx, id))
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.Notifications.MarkAllRead(ctx, userID)
	return n, apperr.FromStorage(err)
}
