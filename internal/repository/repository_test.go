package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/repository"
	"github.com/d60-Lab/fitsocial/internal/testutil"
	"github.com/d60-Lab/fitsocial/pkg/pagination"
)

func TestFollowRepository_CreateDelete(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()

	created, err := store.Follows.Create(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.Follows.Create(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, created, "duplicate edge must be reported, not inserted")

	ok, err := store.Follows.Exists(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := store.Follows.FolloweeIDs(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)

	deleted, err := store.Follows.Delete(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Follows.Delete(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestUserRepository_CountersFloorAtZero(t *testing.T) {
	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	ctx := context.Background()
	testutil.SeedUsers(t, db, "a", "b")

	require.NoError(t, store.Users.IncrementFollowCounts(ctx, "a", "b"))
	require.NoError(t, store.Users.DecrementFollowCounts(ctx, "a", "b"))
	require.NoError(t, store.Users.DecrementFollowCounts(ctx, "a", "b"))

	a, err := store.Users.Get(ctx, "a")
	require.NoError(t, err)
	b, err := store.Users.Get(ctx, "b")
	require.NoError(t, err)
	assert.EqualValues(t, 0, a.FollowingCount)
	assert.EqualValues(t, 0, b.FollowersCount)

	err = store.Users.IncrementFollowCounts(ctx, "a", "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestStore_TransactionRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	ctx := context.Background()
	testutil.SeedUsers(t, db, "a")

	err := store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Follows.Create(ctx, "a", "ghost"); err != nil {
			return err
		}
		return tx.Users.IncrementFollowCounts(ctx, "a", "ghost")
	})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	ok, err := store.Follows.Exists(ctx, "a", "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
	a, err := store.Users.Get(ctx, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 0, a.FollowingCount)
}

func TestReactionRepository_Triple(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	parent := model.ParentRef{Type: model.ParentWorkout, ID: "w1"}

	created, err := store.Reactions.Create(ctx, "u", parent)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = store.Reactions.Create(ctx, "u", parent)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = store.Reactions.Create(ctx, "u", model.ParentRef{Type: model.ParentRoutine, ID: "w1"})
	require.NoError(t, err)

	cnt, err := store.Reactions.Count(ctx, parent)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cnt)
}

func TestCommentRepository_SoftDelete(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	parent := model.ParentRef{Type: model.ParentWorkout, ID: "w1"}

	keep := &model.Comment{ID: uuid.Must(uuid.NewV7()).String(), UserID: "u", ParentType: parent.Type, ParentID: parent.ID, Content: "keep"}
	gone := &model.Comment{ID: uuid.Must(uuid.NewV7()).String(), UserID: "u", ParentType: parent.Type, ParentID: parent.ID, Content: "gone"}
	require.NoError(t, store.Comments.Create(ctx, keep))
	require.NoError(t, store.Comments.Create(ctx, gone))
	require.NoError(t, store.Comments.SoftDelete(ctx, gone.ID))

	items, total, err := store.Comments.List(ctx, parent, pagination.New(0, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, keep.ID, items[0].ID)

	got, err := store.Comments.Get(ctx, gone.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted())
}

func TestFanRepository_ListFansBeforeSurvivesRemoval(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// f0 与 f1 同一时刻，由 id 决定先后
	fans := []*model.Fan{
		{ID: "id-0", UserID: "star", FanID: "f0", CreatedAt: base},
		{ID: "id-1", UserID: "star", FanID: "f1", CreatedAt: base},
		{ID: "id-2", UserID: "star", FanID: "f2", CreatedAt: base.Add(time.Second)},
		{ID: "id-3", UserID: "star", FanID: "f3", CreatedAt: base.Add(2 * time.Second)},
		{ID: "id-4", UserID: "star", FanID: "f4", CreatedAt: base.Add(3 * time.Second)},
		{ID: "id-x", UserID: "other", FanID: "f9", CreatedAt: base},
	}
	require.NoError(t, store.DB().Create(&fans).Error)

	fanIDs := func(items []*model.Fan) []string {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.FanID
		}
		return out
	}

	first, err := store.Fans.ListFansBefore(ctx, "star", nil, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"f4", "f3"}, fanIDs(first))

	// 已读过的粉丝取关后，下一页既不跳过也不重复
	require.NoError(t, store.Fans.Delete(ctx, "star", "f4"))

	second, err := store.Fans.ListFansBefore(ctx, "star", first[len(first)-1], 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"f2", "f1"}, fanIDs(second))

	third, err := store.Fans.ListFansBefore(ctx, "star", second[len(second)-1], 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"f0"}, fanIDs(third))

	// OFFSET 分页在同样的删除后会漏掉 f2
	shifted, err := store.Fans.ListFans(ctx, "star", pagination.New(1, 2))
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f0"}, fanIDs(shifted))
}

func TestActivityRepository_FeedGate(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	events := []*model.ActivityEvent{
		{ID: "e1", OriginUserID: "c", Type: model.ActivityWorkoutCreated, Visibility: model.VisibilityPublic, CreatedAt: base},
		{ID: "e2", OriginUserID: "b", Type: model.ActivityUserFollowed, Visibility: model.VisibilityFollowersOnly, CreatedAt: base.Add(time.Second)},
		{ID: "e3", OriginUserID: "b", Type: model.ActivityWorkoutCreated, Visibility: model.VisibilityPrivate, CreatedAt: base.Add(2 * time.Second)},
	}
	for _, e := range events {
		require.NoError(t, store.Activities.Create(ctx, e))
	}

	ids := func(items []*model.ActivityEvent) []string {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.ID
		}
		return out
	}

	got, err := store.Activities.Feed(ctx, "a", pagination.New(0, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, ids(got))

	_, err = store.Follows.Create(ctx, "a", "b")
	require.NoError(t, err)
	got, err = store.Activities.Feed(ctx, "a", pagination.New(0, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"e2", "e1"}, ids(got))

	// 反向关注不授予可见性
	got, err = store.Activities.Feed(ctx, "b", pagination.New(0, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"e3", "e2", "e1"}, ids(got))
	_, err = store.Follows.Create(ctx, "c", "a")
	require.NoError(t, err)
	got, err = store.Activities.Feed(ctx, "c", pagination.New(0, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, ids(got))

	_, err = store.Follows.Delete(ctx, "a", "b")
	require.NoError(t, err)
	got, err = store.Activities.Feed(ctx, "a", pagination.New(0, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, ids(got))
}

func TestActivityRepository_FeedWithManyFollowees(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()

	// 关注数远超 SQLite 单条语句的绑定参数上限
	const followees = 40000
	follows := make([]*model.Follow, followees)
	for i := range follows {
		follows[i] = &model.Follow{ID: uuid.NewString(), FollowerID: "viewer", FolloweeID: uuid.NewString()}
	}
	require.NoError(t, store.DB().CreateInBatches(follows, 1000).Error)

	last := follows[followees-1].FolloweeID
	require.NoError(t, store.Activities.Create(ctx, &model.ActivityEvent{
		ID: "fo", OriginUserID: last, Type: model.ActivityWorkoutCreated,
		Visibility: model.VisibilityFollowersOnly, CreatedAt: time.Now().UTC(),
	}))

	got, err := store.Activities.Feed(ctx, "viewer", pagination.New(0, 10))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fo", got[0].ID)
}

func TestOutboxRepository_ClaimAndReclaim(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()

	require.NoError(t, store.Outbox.Create(ctx, "e1", "u"))
	require.NoError(t, store.Outbox.Create(ctx, "e2", "u"))

	batch, err := store.Outbox.Claim(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, batch, 2)

	again, err := store.Outbox.Claim(ctx, 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, again, "claimed rows are not handed out twice")

	require.NoError(t, store.Outbox.MarkDone(ctx, batch[0].ID, 3))

	// 处理中超时的记录可被重新认领
	stale, err := store.Outbox.Claim(ctx, 10, -time.Second)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, batch[1].ID, stale[0].ID)

	pending, err := store.Outbox.CountPending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)
}

func TestRoutineRepository_PublishOnce(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	require.NoError(t, store.Routines.Create(ctx, &model.Routine{ID: "r1", OwnerID: "u", Title: "push"}))

	now := time.Now().UTC()
	ok, err := store.Routines.Publish(ctx, "r1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Routines.Publish(ctx, "r1", now)
	require.NoError(t, err)
	assert.False(t, ok)
}
