package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/fitsocial/internal/model"
)

type OutboxRepository interface {
	Create(ctx context.Context, eventID, originID string) error
	// Claim 认领一批待处理记录；处理中超过 staleAfter 的记录视为 worker 崩溃后遗留，可被重新认领
	Claim(ctx context.Context, limit int, staleAfter time.Duration) ([]*model.Outbox, error)
	MarkDone(ctx context.Context, id string, fanoutCount int64) error
	CountPending(ctx context.Context) (int64, error)
}

type outboxRepository struct{ db *gorm.DB }

func NewOutboxRepository(db *gorm.DB) OutboxRepository { return &outboxRepository{db: db} }

func (r *outboxRepository) Create(ctx context.Context, eventID, originID string) error {
	out := &model.Outbox{
		ID:       uuid.Must(uuid.NewV7()).String(),
		EventID:  eventID,
		OriginID: originID,
		Status:   model.OutboxPending,
	}
	return r.db.WithContext(ctx).Create(out).Error
}

func (r *outboxRepository) Claim(ctx context.Context, limit int, staleAfter time.Duration) ([]*model.Outbox, error) {
	var batch []*model.Outbox
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		// SELECT ... FOR UPDATE SKIP LOCKED，多个 worker 互不阻塞；sqlite 忽略锁子句
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? OR (status = ? AND claimed_at < ?)",
				model.OutboxPending, model.OutboxProcessing, now.Add(-staleAfter)).
			Order("created_at").
			Limit(limit).
			Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		ids := make([]string, len(batch))
		for i, b := range batch {
			ids[i] = b.ID
		}
		return tx.Model(&model.Outbox{}).Where("id IN ?", ids).
			Updates(map[string]any{"status": model.OutboxProcessing, "claimed_at": now}).Error
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *outboxRepository) MarkDone(ctx context.Context, id string, fanoutCount int64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&model.Outbox{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxDone, "processed_at": now, "fanout_count": fanoutCount}).Error
}

func (r *outboxRepository) CountPending(ctx context.Context) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Outbox{}).Where("status <> ?", model.OutboxDone).Count(&cnt).Error
	return cnt, err
}
