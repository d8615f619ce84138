package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/repository"
	"github.com/d60-Lab/fitsocial/pkg/apperr"
)

var ErrIncompleteEvent = apperr.New(apperr.ErrInvalidOperation, "activity event requires origin, type and visibility")

// Publisher 负责在调用方事务内写入动态事件与 outbox
type Publisher struct {
	now func() time.Time
}

func NewPublisher() *Publisher {
	return &Publisher{now: func() time.Time { return time.Now().UTC() }}
}

// WithClock 替换事件时间来源
func (p *Publisher) WithClock(now func() time.Time) *Publisher {
	return &Publisher{now: now}
}

// Publish 原样保存事件；需要扇出的事件同时写入 outbox，由 FanoutWorker 异步处理
func (p *Publisher) Publish(ctx context.Context, tx *repository.Store, e *model.ActivityEvent) error {
	if e.OriginUserID == "" || e.Type == "" || !e.Visibility.Valid() {
		return ErrIncompleteEvent
	}
	if e.ID == "" {
		e.ID = uuid.Must(uuid.NewV7()).String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = p.now()
	}
	if err := tx.Activities.Create(ctx, e); err != nil {
		return err
	}
	if !e.FansOut() {
		return nil
	}
	return tx.Outbox.Create(ctx, e.ID, e.OriginUserID)
}

// NewEvent 构造一个待发布的事件
func NewEvent(originUserID string, typ model.ActivityType, visibility model.Visibility, payload map[string]any) (*model.ActivityEvent, error) {
	data, err := jsonPayload(payload)
	if err != nil {
		return nil, err
	}
	return &model.ActivityEvent{
		OriginUserID: originUserID,
		Type:         typ,
		Visibility:   visibility,
		Payload:      data,
	}, nil
}
