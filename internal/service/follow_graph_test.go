package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/pkg/apperr"
	"github.com/d60-Lab/fitsocial/pkg/pagination"
)

func TestFollowGraph_FollowUpdatesCountersOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "a", "b")

	require.NoError(t, h.graph.Follow(ctx, "a", "b"))

	err := h.graph.Follow(ctx, "a", "b")
	require.ErrorIs(t, err, ErrAlreadyFollowing)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	assert.EqualValues(t, 1, h.user(t, "a").FollowingCount)
	assert.EqualValues(t, 0, h.user(t, "a").FollowersCount)
	assert.EqualValues(t, 1, h.user(t, "b").FollowersCount)

	ok, err := h.graph.IsFollowing(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.graph.IsFollowing(ctx, "b", "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollowGraph_FollowSelf(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "a")

	err := h.graph.Follow(context.Background(), "a", "a")
	require.ErrorIs(t, err, ErrFollowSelf)
	assert.ErrorIs(t, err, apperr.ErrInvalidOperation)

	var edges int64
	require.NoError(t, h.db.Model(&model.Follow{}).Count(&edges).Error)
	assert.Zero(t, edges)
	assert.Zero(t, h.user(t, "a").FollowingCount)
	assert.Zero(t, h.user(t, "a").FollowersCount)
}

func TestFollowGraph_UnknownUserRollsBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "a")

	err := h.graph.Follow(ctx, "a", "ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NotContains(t, err.Error(), "record not found")

	ok, err := h.graph.IsFollowing(ctx, "a", "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, h.user(t, "a").FollowingCount)

	var events int64
	require.NoError(t, h.db.Model(&model.ActivityEvent{}).Count(&events).Error)
	assert.Zero(t, events, "event append is part of the follow transaction")
}

func TestFollowGraph_Unfollow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "a", "b")

	err := h.graph.Unfollow(ctx, "a", "b")
	require.ErrorIs(t, err, ErrNotFollowing)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, h.graph.Follow(ctx, "a", "b"))
	require.NoError(t, h.graph.Unfollow(ctx, "a", "b"))

	assert.Zero(t, h.user(t, "a").FollowingCount)
	assert.Zero(t, h.user(t, "b").FollowersCount)

	var fans int64
	require.NoError(t, h.db.Model(&model.Fan{}).Count(&fans).Error)
	assert.Zero(t, fans)
}

func TestFollowGraph_AppendsFollowEventAndNotifies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "a", "b")

	require.NoError(t, h.graph.Follow(ctx, "a", "b"))

	var events []model.ActivityEvent
	require.NoError(t, h.db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, model.ActivityUserFollowed, events[0].Type)
	assert.Equal(t, model.VisibilityFollowersOnly, events[0].Visibility)
	assert.Equal(t, "a", events[0].OriginUserID)
	assert.JSONEq(t, `{"followeeId":"b"}`, string(events[0].Payload))

	var outbox int64
	require.NoError(t, h.db.Model(&model.Outbox{}).Count(&outbox).Error)
	assert.Zero(t, outbox, "follow events are not fanned out")

	got := h.sink.all()
	require.Len(t, got, 1)
	assert.Equal(t, sent{recipient: "b", actor: "a", typ: model.NotifyNewFollow}, got[0])
}

func TestFollowGraph_FolloweeIDs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "a", "b", "c")

	require.NoError(t, h.graph.Follow(ctx, "a", "b"))
	require.NoError(t, h.graph.Follow(ctx, "a", "c"))

	ids, err := h.graph.FolloweeIDs(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, ids)

	ids, err = h.graph.FolloweeIDs(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFollowGraph_Listings(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts func(t *testing.T) []harnessOption
	}{
		{"store", func(*testing.T) []harnessOption { return nil }},
		{"redis", func(t *testing.T) []harnessOption { return []harnessOption{withRedis(t)} }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, tc.opts(t)...)
			ctx := context.Background()
			h.seed(t, "star", "f1", "f2", "f3")

			for _, f := range []string{"f1", "f2", "f3"} {
				require.NoError(t, h.graph.Follow(ctx, f, "star"))
			}

			page, err := h.graph.ListFollowers(ctx, "star", pagination.New(0, 2))
			require.NoError(t, err)
			assert.Len(t, page.Items, 2)
			assert.EqualValues(t, 3, page.TotalElements)
			assert.Equal(t, 2, page.TotalPages)

			// 写入后缓存失效，新的关系立即可见
			require.NoError(t, h.graph.Unfollow(ctx, "f2", "star"))
			page, err = h.graph.ListFollowers(ctx, "star", pagination.New(0, 10))
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"f1", "f3"}, page.Items)

			following, err := h.graph.ListFollowing(ctx, "f1", pagination.New(0, 10))
			require.NoError(t, err)
			assert.Equal(t, []string{"star"}, following.Items)

			_, err = h.graph.ListFollowing(ctx, "f1", pagination.New(0, testMaxPage+1))
			assert.ErrorIs(t, err, apperr.ErrInvalidOperation)
			_, err = h.graph.ListFollowers(ctx, "star", pagination.New(1<<62, 4))
			assert.ErrorIs(t, err, pagination.ErrPageRange)
		})
	}
}

func TestFollowGraph_CountersConsistentUnderConcurrency(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	const n = 6
	users := make([]string, n)
	for i := range users {
		users[i] = fmt.Sprintf("u%d", i)
	}
	h.seed(t, users...)

	var wg conc.WaitGroup
	for w := 0; w < 8; w++ {
		rng := rand.New(rand.NewSource(int64(w)))
		wg.Go(func() {
			for i := 0; i < 30; i++ {
				from := users[rng.Intn(n)]
				to := users[rng.Intn(n)]
				if from == to {
					continue
				}
				var err error
				if rng.Intn(2) == 0 {
					err = h.graph.Follow(ctx, from, to)
				} else {
					err = h.graph.Unfollow(ctx, from, to)
				}
				if err != nil && !errors.Is(err, apperr.ErrConflict) && !errors.Is(err, apperr.ErrNotFound) {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
	wg.Wait()

	for _, u := range users {
		var followers, following int64
		require.NoError(t, h.db.Model(&model.Follow{}).Where("followee_id = ?", u).Count(&followers).Error)
		require.NoError(t, h.db.Model(&model.Follow{}).Where("follower_id = ?", u).Count(&following).Error)
		got := h.user(t, u)
		assert.Equal(t, followers, got.FollowersCount, "followers of %s", u)
		assert.Equal(t, following, got.FollowingCount, "following of %s", u)

		var fans int64
		require.NoError(t, h.db.Model(&model.Fan{}).Where("user_id = ?", u).Count(&fans).Error)
		assert.Equal(t, followers, fans, "fan index of %s", u)
	}
}
