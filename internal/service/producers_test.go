package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/pkg/apperr"
	"github.com/d60-Lab/fitsocial/pkg/pagination"
)

func TestWorkoutLog_CreateAppendsEventWithPrivacy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "a", "b")

	public, err := h.workouts.Create(ctx, "a", WorkoutInput{Title: "squat day"})
	require.NoError(t, err)
	private, err := h.workouts.Create(ctx, "a", WorkoutInput{Title: "rehab", IsPrivate: true})
	require.NoError(t, err)

	var events []model.ActivityEvent
	require.NoError(t, h.db.Order("created_at, id").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, model.ActivityWorkoutCreated, events[0].Type)
	assert.Equal(t, model.VisibilityPublic, events[0].Visibility)
	assert.Contains(t, string(events[0].Payload), public.ID)
	assert.Equal(t, model.VisibilityPrivate, events[1].Visibility)
	assert.Contains(t, string(events[1].Payload), private.ID)

	feed, err := h.feed.GetFeed(ctx, "b", pagination.New(0, 10))
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, events[0].ID, feed.Items[0].ID)
}

func TestWorkoutLog_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "a")

	_, err := h.workouts.Create(ctx, "a", WorkoutInput{Title: " "})
	assert.ErrorIs(t, err, ErrEmptyTitle)

	start := time.Now().UTC()
	end := start.Add(-time.Hour)
	_, err = h.workouts.Create(ctx, "a", WorkoutInput{Title: "x", StartTime: start, EndTime: &end})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, err = h.workouts.Create(ctx, "ghost", WorkoutInput{Title: "x"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	var events int64
	require.NoError(t, h.db.Model(&model.ActivityEvent{}).Count(&events).Error)
	assert.Zero(t, events)
}

func TestWorkoutLog_PrivateHiddenFromOthers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "a")

	w, err := h.workouts.Create(ctx, "a", WorkoutInput{Title: "secret", IsPrivate: true})
	require.NoError(t, err)
	_, err = h.workouts.Create(ctx, "a", WorkoutInput{Title: "open"})
	require.NoError(t, err)

	_, err = h.workouts.Get(ctx, w.ID, "b")
	assert.ErrorIs(t, err, ErrWorkoutNotFound)
	got, err := h.workouts.Get(ctx, w.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Title)

	own, err := h.workouts.ListByUser(ctx, "a", "a", pagination.New(0, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 2, own.TotalElements)

	theirs, err := h.workouts.ListByUser(ctx, "a", "b", pagination.New(0, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, theirs.TotalElements)
	assert.Equal(t, 1, theirs.TotalPages)
}

func TestWorkoutLog_DeleteKeepsEvent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "a")

	w, err := h.workouts.Create(ctx, "a", WorkoutInput{Title: "bench"})
	require.NoError(t, err)

	err = h.workouts.Delete(ctx, w.ID, "b")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, h.workouts.Delete(ctx, w.ID, "a"))
	_, err = h.workouts.Get(ctx, w.ID, "a")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = h.workouts.Delete(ctx, w.ID, "a")
	assert.ErrorIs(t, err, ErrWorkoutNotFound)

	var events int64
	require.NoError(t, h.db.Model(&model.ActivityEvent{}).Count(&events).Error)
	assert.EqualValues(t, 1, events)
}

func TestRoutineBook_Publish(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "owner", "other")

	r, err := h.routines.Create(ctx, "owner", "push pull legs", "")
	require.NoError(t, err)
	assert.False(t, r.IsPublic)

	_, err = h.routines.Get(ctx, r.ID, "other")
	assert.ErrorIs(t, err, ErrRoutineNotFound)

	_, err = h.routines.Publish(ctx, r.ID, "other")
	assert.ErrorIs(t, err, ErrRoutineNotOwned)

	published, err := h.routines.Publish(ctx, r.ID, "owner")
	require.NoError(t, err)
	assert.True(t, published.IsPublic)
	require.NotNil(t, published.PublishedAt)

	_, err = h.routines.Publish(ctx, r.ID, "owner")
	assert.ErrorIs(t, err, ErrAlreadyPublished)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err := h.routines.Get(ctx, r.ID, "other")
	require.NoError(t, err)
	assert.True(t, got.IsPublic)

	var events []model.ActivityEvent
	require.NoError(t, h.db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, model.ActivityRoutinePublished, events[0].Type)
	assert.Equal(t, model.VisibilityPublic, events[0].Visibility)

	_, err = h.routines.Publish(ctx, "missing", "owner")
	assert.ErrorIs(t, err, ErrRoutineNotFound)
}

func TestRoutineBook_CreateValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.routines.Create(ctx, "ghost", "title", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = h.routines.Create(ctx, "ghost", "", "")
	assert.ErrorIs(t, err, ErrEmptyTitle)
}
