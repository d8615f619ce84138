package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/repository"
	"github.com/d60-Lab/fitsocial/internal/repository/dbretry"
	"github.com/d60-Lab/fitsocial/pkg/apperr"
)

var (
	ErrRoutineNotFound  = apperr.New(apperr.ErrNotFound, "routine not found")
	ErrRoutineNotOwned  = apperr.New(apperr.ErrForbidden, "routine belongs to another user")
	ErrAlreadyPublished = apperr.New(apperr.ErrConflict, "routine already published")
)

// RoutineBook 训练计划，发布时在同一事务内产生 ROUTINE_PUBLISHED 动态
type RoutineBook interface {
	Create(ctx context.Context, ownerID, title, description string) (*model.Routine, error)
	Publish(ctx context.Context, routineID, userID string) (*model.Routine, error)
	Get(ctx context.Context, id, viewerID string) (*model.Routine, error)
}

type routineBook struct {
	store     *repository.Store
	publisher *Publisher
}

func NewRoutineBook(store *repository.Store, publisher *Publisher) RoutineBook {
	return &routineBook{store: store, publisher: publisher}
}

func (s *routineBook) Create(ctx context.Context, ownerID, title, description string) (*model.Routine, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}
	if _, err := dbretry.Operation(ctx, func(ctx context.Context) (*model.User, error) {
		return s.store.Users.Get(ctx, ownerID)
	}); err != nil {
		return nil, notFoundAs(apperr.FromStorage(err), ErrUserNotFound)
	}

	r := &model.Routine{
		ID:          uuid.Must(uuid.NewV7()).String(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
	}
	if err := s.store.Routines.Create(ctx, r); err != nil {
		return nil, apperr.FromStorage(err)
	}
	return r, nil
}

func (s *routineBook) Publish(ctx context.Context, routineID, userID string) (*model.Routine, error) {
	ctx, span := tracer.Start(ctx, "RoutineBook.Publish", trace.WithAttributes(
		attribute.String("routine.id", routineID),
		attribute.String("user.id", userID)))
	defer span.End()

	var published *model.Routine
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		r, err := tx.Routines.Get(ctx, routineID)
		if err != nil {
			return notFoundAs(apperr.FromStorage(err), ErrRoutineNotFound)
		}
		if r.OwnerID != userID {
			return ErrRoutineNotOwned
		}
		now := time.Now().UTC()
		// 条件更新保证并发发布只有一次成功
		ok, err := tx.Routines.Publish(ctx, routineID, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyPublished
		}
		event, err := NewEvent(userID, model.ActivityRoutinePublished, model.VisibilityPublic, map[string]any{
			"routineId": r.ID,
			"title":     r.Title,
		})
		if err != nil {
			return err
		}
		if err := s.publisher.Publish(ctx, tx, event); err != nil {
			return err
		}
		r.IsPublic = true
		r.PublishedAt = &now
		r.UpdatedAt = now
		published = r
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}
	return published, nil
}

// Get 未发布的计划只对所有者可见
func (s *routineBook) Get(ctx context.Context, id, viewerID string) (*model.Routine, error) {
	r, err := dbretry.Operation(ctx, func(ctx context.Context) (*model.Routine, error) {
		return s.store.Routines.Get(ctx, id)
	})
	if err != nil {
		return nil, notFoundAs(apperr.FromStorage(err), ErrRoutineNotFound)
	}
	if !r.IsPublic && r.OwnerID != viewerID {
		return nil, ErrRoutineNotFound
	}
	return r, nil
}
