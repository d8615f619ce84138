package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/repository"
	"github.com/d60-Lab/fitsocial/internal/repository/dbretry"
	"github.com/d60-Lab/fitsocial/pkg/apperr"
)

var (
	ErrEmptyUsername  = apperr.New(apperr.ErrInvalidOperation, "username must not be empty")
	ErrUsernameTaken  = apperr.New(apperr.ErrConflict, "username already taken")
	ErrUserNotFound   = apperr.New(apperr.ErrNotFound, "user not found")
	reconcileBatch    = 500
	reconcileParallel = 4
)

// UserDirectory 用户资料与计数对账
type UserDirectory interface {
	Create(ctx context.Context, username, displayName string) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	// Reconcile 按关注边重算计数，返回计数是否曾漂移
	Reconcile(ctx context.Context, userID string) (bool, error)
	// ReconcileAll 遍历全部用户对账，返回漂移的用户数
	ReconcileAll(ctx context.Context) (int, error)
}

type userDirectory struct {
	store *repository.Store
	log   *zap.Logger
}

func NewUserDirectory(store *repository.Store, log *zap.Logger) UserDirectory {
	return &userDirectory{store: store, log: log}
}

func (s *userDirectory) Create(ctx context.Context, username, displayName string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrEmptyUsername
	}
	if displayName == "" {
		displayName = username
	}
	u := &model.User{ID: uuid.Must(uuid.NewV7()).String(), Username: username, DisplayName: displayName}
	if err := s.store.Users.Create(ctx, u); err != nil {
		err = apperr.FromStorage(err)
		if errors.Is(err, apperr.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *userDirectory) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := dbretry.Operation(ctx, func(ctx context.Context) (*model.User, error) {
		return s.store.Users.Get(ctx, id)
	})
	if err != nil {
		return nil, notFoundAs(apperr.FromStorage(err), ErrUserNotFound)
	}
	return u, nil
}

func (s *userDirectory) Reconcile(ctx context.Context, userID string) (bool, error) {
	var drifted bool
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		u, err := tx.Users.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		followers, err := tx.Follows.CountFollowers(ctx, userID)
		if err != nil {
			return err
		}
		following, err := tx.Follows.CountFollowings(ctx, userID)
		if err != nil {
			return err
		}
		drifted = u.FollowersCount != followers || u.FollowingCount != following
		if !drifted {
			return nil
		}
		s.log.Warn("follow counters drifted",
			zap.String("user", userID),
			zap.Int64("followers_cached", u.FollowersCount),
			zap.Int64("followers_actual", followers),
			zap.Int64("following_cached", u.FollowingCount),
			zap.Int64("following_actual", following))
		return tx.Users.SetFollowCounts(ctx, userID, followers, following)
	})
	if err != nil {
		return false, notFoundAs(apperr.FromStorage(err), ErrUserNotFound)
	}
	return drifted, nil
}

func (s *userDirectory) ReconcileAll(ctx context.Context) (int, error) {
	var drifted atomic.Int64
	after := ""
	for {
		ids, err := dbretry.Operation(ctx, func(ctx context.Context) ([]string, error) {
			return s.store.Users.ListIDsAfter(ctx, after, reconcileBatch)
		})
		if err != nil {
			return int(drifted.Load()), apperr.FromStorage(err)
		}
		if len(ids) == 0 {
			break
		}

		p := pool.New().WithContext(ctx).WithMaxGoroutines(reconcileParallel).WithCancelOnError()
		for _, id := range ids {
			p.Go(func(ctx context.Context) error {
				changed, err := s.Reconcile(ctx, id)
				if err != nil {
					return err
				}
				if changed {
					drifted.Add(1)
				}
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return int(drifted.Load()), err
		}

		after = ids[len(ids)-1]
		if len(ids) < reconcileBatch {
			break
		}
	}

	s.log.Info("reconciled follow counters", zap.Int64("drifted", drifted.Load()))
	return int(drifted.Load()), nil
}
