package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/fitsocial/config"
	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/repository"
)

// FanoutWorker 从 outbox 拉取事件，为作者的每个粉丝写入 ACTIVITY_FROM_FOLLOWER 通知
type FanoutWorker struct {
	store        *repository.Store
	batchSize    int
	claimLimit   int
	pollInterval time.Duration
	staleAfter   time.Duration
	workers      int
	log          *zap.Logger
	metricsCh    chan time.Duration // outbox->processed latency
}

func NewFanoutWorker(store *repository.Store, cfg config.FanoutConfig, log *zap.Logger) *FanoutWorker {
	w := &FanoutWorker{
		store:        store,
		workers:      cfg.Workers,
		batchSize:    cfg.BatchSize,
		claimLimit:   cfg.ClaimLimit,
		pollInterval: cfg.PollInterval,
		staleAfter:   cfg.StaleAfter,
		log:          log,
		metricsCh:    make(chan time.Duration, 65536),
	}
	if w.workers <= 0 {
		w.workers = 4
	}
	if w.batchSize <= 0 {
		w.batchSize = 500
	}
	if w.claimLimit <= 0 {
		w.claimLimit = 128
	}
	if w.pollInterval <= 0 {
		w.pollInterval = 50 * time.Millisecond
	}
	if w.staleAfter <= 0 {
		w.staleAfter = 5 * time.Minute
	}
	return w
}

func (w *FanoutWorker) Metrics() <-chan time.Duration { return w.metricsCh }

// Start 启动若干 worker 轮询处理 outbox；返回停止函数。
func (w *FanoutWorker) Start() func(context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	var wg conc.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Go(func() { w.loop(ctx) })
	}
	return func(stopCtx context.Context) error {
		cancel()
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-stopCtx.Done():
			return stopCtx.Err()
		}
	}
}

func (w *FanoutWorker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.ProcessOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.log.Warn("fanout round failed", zap.Error(err))
			}
		}
	}
}

// ProcessOnce 认领一批 outbox 并扇出，返回处理的记录数
func (w *FanoutWorker) ProcessOnce(ctx context.Context) (int, error) {
	batch, err := w.store.Outbox.Claim(ctx, w.claimLimit, w.staleAfter)
	if err != nil {
		return 0, err
	}

	for _, b := range batch {
		written, err := w.fanout(ctx, b)
		if err != nil {
			// 保持 processing，超过 staleAfter 后由其他 worker 重新认领
			w.log.Warn("fanout failed", zap.String("event", b.EventID), zap.Error(err))
			continue
		}
		if err := w.store.Outbox.MarkDone(ctx, b.ID, written); err != nil {
			w.log.Warn("failed to mark outbox done", zap.String("outbox", b.ID), zap.Error(err))
			continue
		}
		// record latency
		if !b.CreatedAt.IsZero() {
			select {
			case w.metricsCh <- time.Since(b.CreatedAt):
			default:
			}
		}
	}
	return len(batch), nil
}

func (w *FanoutWorker) fanout(ctx context.Context, b *model.Outbox) (int64, error) {
	event, err := w.store.Activities.Get(ctx, b.EventID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !event.FansOut() {
		return 0, nil
	}

	payload, err := jsonPayload(map[string]any{
		"eventId": event.ID,
		"type":    event.Type,
		"payload": event.Payload,
	})
	if err != nil {
		return 0, err
	}

	// 按 (created_at, id) 游标分页，期间的取关不会让后续粉丝错位
	var (
		totalWritten int64
		cursor       *model.Fan
	)
	for {
		fans, err := w.store.Fans.ListFansBefore(ctx, event.OriginUserID, cursor, w.batchSize)
		if err != nil {
			return totalWritten, err
		}
		if len(fans) == 0 {
			break
		}
		records := make([]*model.Notification, 0, len(fans))
		for _, f := range fans {
			eventID := event.ID
			records = append(records, &model.Notification{
				ID:      uuid.Must(uuid.NewV7()).String(),
				UserID:  f.FanID,
				ActorID: event.OriginUserID,
				Type:    model.NotifyActivityFromFollower,
				EventID: &eventID,
				Payload: payload,
			})
		}
		// (user_id, event_id) 唯一，重复扇出被忽略
		written, err := w.store.Notifications.CreateBatch(ctx, records)
		if err != nil {
			return totalWritten, err
		}
		totalWritten += written
		if len(fans) < w.batchSize {
			break
		}
		cursor = fans[len(fans)-1]
	}
	return totalWritten, nil
}
