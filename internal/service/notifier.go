package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/repository"
)

// NotificationSink receives best-effort notifications after a write commits.
type NotificationSink interface {
	NotifyUser(recipientID, actorID string, typ model.NotificationType, payload map[string]any)
	NotifyParentOwner(parent model.ParentRef, actorID string, typ model.NotificationType, payload map[string]any)
}

type noopSink struct{}

func (noopSink) NotifyUser(string, string, model.NotificationType, map[string]any)                {}
func (noopSink) NotifyParentOwner(model.ParentRef, string, model.NotificationType, map[string]any) {}

func sinkOrNoop(s NotificationSink) NotificationSink {
	if s == nil {
		return noopSink{}
	}
	return s
}

type notifyJob struct {
	recipientID string
	parent      *model.ParentRef
	actorID     string
	typ         model.NotificationType
	payload     map[string]any
	enqAt       time.Time
}

// Notifier 本地异步通知写入器：有界队列 + worker，队列满时丢弃并告警，不阻塞请求
type Notifier struct {
	store     *repository.Store
	ch        chan notifyJob
	log       *zap.Logger
	metricsCh chan time.Duration
	timeout   time.Duration
}

func NewNotifier(store *repository.Store, queueSize int, log *zap.Logger) *Notifier {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &Notifier{
		store:     store,
		ch:        make(chan notifyJob, queueSize),
		log:       log,
		metricsCh: make(chan time.Duration, 65536),
		timeout:   5 * time.Second,
	}
}

// Start 启动 worker，返回停止函数；停止时先排空队列，最多等待到 ctx 截止
func (n *Notifier) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	stopCh := make(chan struct{})
	var wg conc.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Go(func() {
			for {
				select {
				case job := <-n.ch:
					n.handle(job)
				case <-stopCh:
					n.drain()
					return
				}
			}
		})
	}
	return func(ctx context.Context) error {
		close(stopCh)
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (n *Notifier) drain() {
	for {
		select {
		case job := <-n.ch:
			n.handle(job)
		default:
			return
		}
	}
}

func (n *Notifier) NotifyUser(recipientID, actorID string, typ model.NotificationType, payload map[string]any) {
	n.enqueue(notifyJob{recipientID: recipientID, actorID: actorID, typ: typ, payload: payload})
}

// NotifyParentOwner 由 worker 解析父实体的所有者后写入通知
func (n *Notifier) NotifyParentOwner(parent model.ParentRef, actorID string, typ model.NotificationType, payload map[string]any) {
	n.enqueue(notifyJob{parent: &parent, actorID: actorID, typ: typ, payload: payload})
}

func (n *Notifier) enqueue(job notifyJob) {
	job.enqAt = time.Now()
	select {
	case n.ch <- job:
	default:
		n.log.Warn("notifier queue full, drop notification",
			zap.String("type", string(job.typ)),
			zap.String("actor", job.actorID),
			zap.String("recipient", job.recipientID))
	}
}

func (n *Notifier) handle(job notifyJob) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	if err := n.deliver(ctx, job); err != nil {
		n.log.Warn("failed to deliver notification",
			zap.String("type", string(job.typ)),
			zap.String("actor", job.actorID),
			zap.Error(err))
	}
	if !job.enqAt.IsZero() {
		select {
		case n.metricsCh <- time.Since(job.enqAt):
		default:
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, job notifyJob) error {
	recipient := job.recipientID
	if job.parent != nil {
		owner, err := n.ownerOf(ctx, *job.parent)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		recipient = owner
	}
	// 自己的操作不通知自己
	if recipient == "" || recipient == job.actorID {
		return nil
	}

	payload, err := jsonPayload(job.payload)
	if err != nil {
		return err
	}
	return n.store.Notifications.Create(ctx, &model.Notification{
		ID:      uuid.Must(uuid.NewV7()).String(),
		UserID:  recipient,
		ActorID: job.actorID,
		Type:    job.typ,
		Payload: payload,
	})
}

func (n *Notifier) ownerOf(ctx context.Context, parent model.ParentRef) (string, error) {
	switch parent.Type {
	case model.ParentWorkout:
		w, err := n.store.Workouts.Get(ctx, parent.ID)
		if err != nil {
			return "", err
		}
		return w.UserID, nil
	case model.ParentRoutine:
		r, err := n.store.Routines.Get(ctx, parent.ID)
		if err != nil {
			return "", err
		}
		return r.OwnerID, nil
	case model.ParentComment:
		c, err := n.store.Comments.Get(ctx, parent.ID)
		if err != nil {
			return "", err
		}
		return c.UserID, nil
	default:
		return "", gorm.ErrRecordNotFound
	}
}

// Metrics 返回通知落地耗时的只读通道（每处理一条发送一次 duration）。
func (n *Notifier) Metrics() <-chan time.Duration { return n.metricsCh }

// QueueLen 返回当前队列长度（采样值）。
func (n *Notifier) QueueLen() int { return len(n.ch) }
