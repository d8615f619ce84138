package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/pkg/apperr"
	"github.com/d60-Lab/fitsocial/pkg/pagination"
)

var workoutParent = model.ParentRef{Type: model.ParentWorkout, ID: "w1"}

func TestCommentThread_AddValidates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.comments.Add(ctx, "u", workoutParent, "   ")
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.ErrorIs(t, err, apperr.ErrInvalidOperation)

	_, err = h.comments.Add(ctx, "u", model.ParentRef{Type: model.ParentComment, ID: "c"}, "nested")
	assert.ErrorIs(t, err, ErrInvalidParent)

	c, err := h.comments.Add(ctx, "u", workoutParent, "nice lift")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())
	assert.False(t, c.Deleted())

	got := h.sink.all()
	require.Len(t, got, 1)
	assert.Equal(t, model.NotifyNewComment, got[0].typ)
}

func TestCommentThread_SoftDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	c, err := h.comments.Add(ctx, "owner", workoutParent, "first")
	require.NoError(t, err)
	other, err := h.comments.Add(ctx, "owner", workoutParent, "second")
	require.NoError(t, err)

	err = h.comments.SoftDelete(ctx, c.ID, "intruder")
	require.ErrorIs(t, err, ErrCommentNotOwned)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	err = h.comments.SoftDelete(ctx, "missing", "owner")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, h.comments.SoftDelete(ctx, c.ID, "owner"))
	deleted, err := h.comments.Get(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, deleted.Deleted())
	stamp := deleted.DeletedAt.Time

	// 重复删除为无操作，不重写删除时间
	require.NoError(t, h.comments.SoftDelete(ctx, c.ID, "owner"))
	again, err := h.comments.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, stamp.Equal(again.DeletedAt.Time))

	page, err := h.comments.List(ctx, workoutParent, pagination.New(0, 10))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, other.ID, page.Items[0].ID)
	assert.EqualValues(t, 1, page.TotalElements)
}

func TestCommentThread_ListPaged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var ids []string
	for _, text := range []string{"one", "two", "three", "four", "five"} {
		c, err := h.comments.Add(ctx, "u", workoutParent, text)
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}
	_, err := h.comments.Add(ctx, "u", model.ParentRef{Type: model.ParentRoutine, ID: "w1"}, "elsewhere")
	require.NoError(t, err)

	page, err := h.comments.List(ctx, workoutParent, pagination.New(0, 2))
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 2)

	last, err := h.comments.List(ctx, workoutParent, pagination.New(2, 2))
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	assert.Equal(t, ids[0], last.Items[0].ID, "oldest comment is on the last page")

	_, err = h.comments.List(ctx, workoutParent, pagination.New(0, testMaxPage+1))
	assert.ErrorIs(t, err, apperr.ErrInvalidOperation)
}

func TestCommentThread_ReactionOnDeletedCommentAccepted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	c, err := h.comments.Add(ctx, "u", workoutParent, "soon gone")
	require.NoError(t, err)
	require.NoError(t, h.comments.SoftDelete(ctx, c.ID, "u"))

	liked, err := h.reactions.Toggle(ctx, "v", model.ParentRef{Type: model.ParentComment, ID: c.ID})
	require.NoError(t, err)
	assert.True(t, liked)
}
