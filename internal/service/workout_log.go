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
	"github.com/d60-Lab/fitsocial/pkg/pagination"
)

var (
	ErrEmptyTitle       = apperr.New(apperr.ErrInvalidOperation, "title must not be empty")
	ErrInvalidTimeRange = apperr.New(apperr.ErrInvalidOperation, "end time must not be before start time")
	ErrWorkoutNotFound  = apperr.New(apperr.ErrNotFound, "workout not found")
	ErrWorkoutNotOwned  = apperr.New(apperr.ErrForbidden, "workout belongs to another user")
)

// WorkoutInput 新建训练记录的参数
type WorkoutInput struct {
	Title     string
	Notes     string
	StartTime time.Time
	EndTime   *time.Time
	IsPrivate bool
}

// WorkoutLog 训练记录，创建时在同一事务内产生 WORKOUT_CREATED 动态
type WorkoutLog interface {
	Create(ctx context.Context, userID string, in WorkoutInput) (*model.Workout, error)
	Get(ctx context.Context, id, viewerID string) (*model.Workout, error)
	ListByUser(ctx context.Context, userID, viewerID string, page pagination.Page) (pagination.Paged[*model.Workout], error)
	Delete(ctx context.Context, id, userID string) error
}

type workoutLog struct {
	store       *repository.Store
	publisher   *Publisher
	maxPageSize int
}

func NewWorkoutLog(store *repository.Store, publisher *Publisher, maxPageSize int) WorkoutLog {
	return &workoutLog{store: store, publisher: publisher, maxPageSize: maxPageSize}
}

func (s *workoutLog) Create(ctx context.Context, userID string, in WorkoutInput) (*model.Workout, error) {
	ctx, span := tracer.Start(ctx, "WorkoutLog.Create", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrEmptyTitle
	}
	if in.StartTime.IsZero() {
		in.StartTime = time.Now().UTC()
	}
	if in.EndTime != nil && in.EndTime.Before(in.StartTime) {
		return nil, ErrInvalidTimeRange
	}

	// 动态可见性跟随训练记录的私密标记
	visibility := model.VisibilityPublic
	if in.IsPrivate {
		visibility = model.VisibilityPrivate
	}

	var w *model.Workout
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.Get(ctx, userID); err != nil {
			return notFoundAs(apperr.FromStorage(err), ErrUserNotFound)
		}
		w = &model.Workout{
			ID:        uuid.Must(uuid.NewV7()).String(),
			UserID:    userID,
			Title:     in.Title,
			Notes:     in.Notes,
			StartTime: in.StartTime.UTC(),
			EndTime:   in.EndTime,
			IsPrivate: in.IsPrivate,
		}
		if err := tx.Workouts.Create(ctx, w); err != nil {
			return err
		}
		event, err := NewEvent(userID, model.ActivityWorkoutCreated, visibility, map[string]any{
			"workoutId": w.ID,
			"title":     w.Title,
		})
		if err != nil {
			return err
		}
		return s.publisher.Publish(ctx, tx, event)
	})
	if err != nil {
		return nil, fail(span, err)
	}
	return w, nil
}

// Get 私密记录只对本人可见，其他人视为不存在
func (s *workoutLog) Get(ctx context.Context, id, viewerID string) (*model.Workout, error) {
	w, err := dbretry.Operation(ctx, func(ctx context.Context) (*model.Workout, error) {
		return s.store.Workouts.Get(ctx, id)
	})
	if err != nil {
		return nil, notFoundAs(apperr.FromStorage(err), ErrWorkoutNotFound)
	}
	if w.IsPrivate && w.UserID != viewerID {
		return nil, ErrWorkoutNotFound
	}
	return w, nil
}

func (s *workoutLog) ListByUser(ctx context.Context, userID, viewerID string, page pagination.Page) (pagination.Paged[*model.Workout], error) {
	if err := page.Validate(s.maxPageSize); err != nil {
		return pagination.Paged[*model.Workout]{}, err
	}

	type result struct {
		items []*model.Workout
		total int64
	}
	res, err := dbretry.Operation(ctx, func(ctx context.Context) (result, error) {
		items, total, err := s.store.Workouts.ListByUser(ctx, userID, userID == viewerID, page)
		return result{items: items, total: total}, err
	})
	if err != nil {
		return pagination.Paged[*model.Workout]{}, apperr.FromStorage(err)
	}
	return pagination.NewPaged(res.items, res.total, page), nil
}

// Delete 已发布的动态保留，payload 中的 workoutId 可能失效
func (s *workoutLog) Delete(ctx context.Context, id, userID string) error {
	ctx, span := tracer.Start(ctx, "WorkoutLog.Delete", trace.WithAttributes(attribute.String("workout.id", id)))
	defer span.End()

	w, err := dbretry.Operation(ctx, func(ctx context.Context) (*model.Workout, error) {
		return s.store.Workouts.Get(ctx, id)
	})
	if err != nil {
		return notFoundAs(apperr.FromStorage(err), ErrWorkoutNotFound)
	}
	if w.UserID != userID {
		return ErrWorkoutNotOwned
	}
	if err := s.store.Workouts.Delete(ctx, id); err != nil {
		return fail(span, notFoundAs(apperr.FromStorage(err), ErrWorkoutNotFound))
	}
	return nil
}
