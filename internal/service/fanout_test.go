package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/d60-Lab/fitsocial/config"
	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/pkg/pagination"
)

func newFanout(t *testing.T, h *harness, batchSize int) *FanoutWorker {
	t.Helper()
	return NewFanoutWorker(h.store, config.FanoutConfig{
		Workers:      1,
		BatchSize:    batchSize,
		ClaimLimit:   16,
		PollInterval: 10 * time.Millisecond,
	}, zaptest.NewLogger(t))
}

func TestFanout_WritesOneNotificationPerFan(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "author", "f1", "f2", "f3", "stranger")
	for _, fan := range []string{"f1", "f2", "f3"} {
		require.NoError(t, h.graph.Follow(ctx, fan, "author"))
	}

	w, err := h.workouts.Create(ctx, "author", WorkoutInput{Title: "intervals"})
	require.NoError(t, err)

	// batch size 2 forces a second fan page
	worker := newFanout(t, h, 2)
	n, err := worker.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for _, fan := range []string{"f1", "f2", "f3"} {
		page, err := h.inbox.ListUnread(ctx, fan, pagination.New(0, 10))
		require.NoError(t, err)
		require.Len(t, page.Items, 1, fan)
		got := page.Items[0]
		assert.Equal(t, model.NotifyActivityFromFollower, got.Type)
		assert.Equal(t, "author", got.ActorID)
		require.NotNil(t, got.EventID)
		assert.Contains(t, string(got.Payload), w.ID)
	}
	assert.Zero(t, unread(h, "stranger"))
	assert.Zero(t, unread(h, "author"))

	var box model.Outbox
	require.NoError(t, h.db.First(&box).Error)
	assert.Equal(t, model.OutboxDone, box.Status)
	assert.EqualValues(t, 3, box.FanoutCount)
	require.NotNil(t, box.ProcessedAt)

	pending, err := h.store.Outbox.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	n, err = worker.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFanout_UnfollowBetweenPagesKeepsRemainingFans(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "author", "f1", "f2", "f3")
	for _, fan := range []string{"f1", "f2", "f3"} {
		require.NoError(t, h.graph.Follow(ctx, fan, "author"))
	}
	_, err := h.workouts.Create(ctx, "author", WorkoutInput{Title: "hills"})
	require.NoError(t, err)

	// 第一页 [f3 f2] 读出后 f3 取关，f1 仍应收到通知
	removed := false
	require.NoError(t, h.db.Callback().Query().After("gorm:query").Register("test:unfollow_mid_fanout", func(tx *gorm.DB) {
		if removed || tx.Statement.Table != "fans" {
			return
		}
		removed = true
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			"DELETE FROM fans WHERE user_id = ? AND fan_id = ?", "author", "f3")
	}))

	worker := newFanout(t, h, 2)
	n, err := worker.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.True(t, removed)

	for _, fan := range []string{"f1", "f2", "f3"} {
		assert.EqualValues(t, 1, unread(h, fan), fan)
	}

	var box model.Outbox
	require.NoError(t, h.db.First(&box).Error)
	assert.Equal(t, model.OutboxDone, box.Status)
	assert.EqualValues(t, 3, box.FanoutCount)
}

func TestFanout_ReprocessIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "author", "f1")
	require.NoError(t, h.graph.Follow(ctx, "f1", "author"))
	_, err := h.workouts.Create(ctx, "author", WorkoutInput{Title: "tempo"})
	require.NoError(t, err)

	worker := newFanout(t, h, 10)
	_, err = worker.ProcessOnce(ctx)
	require.NoError(t, err)

	// 模拟 worker 在 MarkDone 之前崩溃，记录被重新认领
	require.NoError(t, h.db.Model(&model.Outbox{}).Where("1 = 1").
		Updates(map[string]any{"status": model.OutboxProcessing, "claimed_at": time.Now().UTC().Add(-time.Hour)}).Error)

	n, err := worker.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.EqualValues(t, 1, unread(h, "f1"))

	var box model.Outbox
	require.NoError(t, h.db.First(&box).Error)
	assert.Equal(t, model.OutboxDone, box.Status)
	assert.Zero(t, box.FanoutCount)
}

func TestFanout_PrivateAndFollowEventsStayLocal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "author", "f1")
	require.NoError(t, h.graph.Follow(ctx, "f1", "author"))
	_, err := h.workouts.Create(ctx, "author", WorkoutInput{Title: "diary", IsPrivate: true})
	require.NoError(t, err)

	var boxes int64
	require.NoError(t, h.db.Model(&model.Outbox{}).Count(&boxes).Error)
	assert.Zero(t, boxes)

	n, err := newFanout(t, h, 10).ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, unread(h, "f1"))
}

func TestFanout_StartStop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "author", "f1")
	require.NoError(t, h.graph.Follow(ctx, "f1", "author"))

	worker := newFanout(t, h, 10)
	stop := worker.Start()

	r, err := h.routines.Create(ctx, "author", "5x5", "")
	require.NoError(t, err)
	_, err = h.routines.Publish(ctx, r.ID, "author")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return unread(h, "f1") == 1 }, 3*time.Second, 20*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, stop(stopCtx))

	select {
	case d := <-worker.Metrics():
		assert.Positive(t, d)
	default:
		t.Fatal("expected a latency sample")
	}
}
